package realtime

import (
	"context"
	"time"
)

// Tables that emit change events
const (
	TableMessages       = "messages"
	TablePosts          = "posts"
	TableCommunityPosts = "community_posts"
	TableAnnouncements  = "announcements"
	TableReports        = "reports"
	TableUserModeration = "user_moderation"
)

// Change actions
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Event is a change notification for a single row. ActorID is the user who
// caused the change; TargetID, when set, is the user the row is addressed to
// (message recipient, moderated user) so subscribers can filter.
type Event struct {
	Table    string    `json:"table"`
	Action   string    `json:"action"`
	RecordID string    `json:"record_id,omitempty"`
	ActorID  string    `json:"actor_id,omitempty"`
	TargetID string    `json:"target_id,omitempty"`
	At       time.Time `json:"at"`
}

// Concerns returns whether the event involves userID as actor or target.
func (e Event) Concerns(userID string) bool {
	return e.ActorID == userID || e.TargetID == userID
}

// Subscription is a live change-feed subscription. Unsubscribe must be called
// on teardown.
type Subscription interface {
	Unsubscribe() error
}

// Broker fans change events out to subscribers, one subject per table.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(table string, handler func(Event)) (Subscription, error)
	Close()
}
