package entity

import (
	"sort"
	"strings"
)

// Conversation is the derived view of all messages exchanged with one
// counterparty. It is recomputed from the flat message log and never
// persisted.
type Conversation struct {
	Key         string          `json:"key"`
	Counterpart *ProfileSummary `json:"counterpart,omitempty"`
	LastMessage Message         `json:"last_message"`
	UnreadCount int             `json:"unread_count"`
}

// ConversationKey builds the canonical key for a pair of users. The key is
// order-independent: both (a, b) and (b, a) map to the same key.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

// KeyCounterparty returns the participant in key that is not viewerID.
// User IDs may themselves contain the separator (UUIDs do), so the key is
// resolved against the known viewer rather than split blindly.
func KeyCounterparty(key, viewerID string) (string, error) {
	if viewerID == "" || !strings.Contains(key, "-") {
		return "", ErrInvalidConversationKey
	}
	if rest, ok := strings.CutPrefix(key, viewerID+"-"); ok && rest != "" {
		return rest, nil
	}
	if rest, ok := strings.CutSuffix(key, "-"+viewerID); ok && rest != "" {
		return rest, nil
	}
	return "", ErrNotParticipant
}

// BuildConversations groups a flat message log into one conversation per
// counterparty. Messages must belong to the viewer (sender or recipient).
// Input order does not matter; the output is sorted by the preview message's
// timestamp descending, with the message ID descending as a deterministic
// tie-break.
func BuildConversations(msgs []Message, viewerID string) []Conversation {
	byKey := make(map[string]*Conversation)
	for i := range msgs {
		m := msgs[i]
		counterpartID, counterpart := m.Counterparty(viewerID)
		key := ConversationKey(viewerID, counterpartID)

		conv, ok := byKey[key]
		if !ok {
			conv = &Conversation{Key: key, LastMessage: m, Counterpart: counterpart}
			byKey[key] = conv
		} else if newerThan(m, conv.LastMessage) {
			conv.LastMessage = m
			if counterpart != nil {
				conv.Counterpart = counterpart
			}
		}
		if conv.Counterpart == nil && counterpart != nil {
			conv.Counterpart = counterpart
		}

		if m.RecipientID == viewerID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	out := make([]Conversation, 0, len(byKey))
	for _, conv := range byKey {
		out = append(out, *conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newerThan(out[i].LastMessage, out[j].LastMessage)
	})
	return out
}

func newerThan(a, b Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// UnreadTotal sums unread counts across conversations.
func UnreadTotal(convs []Conversation) int {
	total := 0
	for i := range convs {
		total += convs[i].UnreadCount
	}
	return total
}
