package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// ConversationLister is the slice of the message service the inbox needs
type ConversationLister interface {
	ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error)
}

// Inbox holds the derived conversation list for one viewer and keeps it
// current: every change event on the messages table that concerns the viewer
// triggers a full re-fetch. Each fetch is tagged with a monotonically
// increasing sequence number; a completion that is no longer the latest issued
// fetch is discarded, so a slow stale response can never overwrite a fresh
// one. After Close no further state is applied.
type Inbox struct {
	lister   ConversationLister
	viewerID string
	logger   *slog.Logger

	mu            sync.Mutex
	seq           uint64
	applied       uint64
	conversations []entity.Conversation
	closed        bool

	sub    realtime.Subscription
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// InboxConfig holds inbox tunables
type InboxConfig struct {
	// PollInterval re-fetches the list periodically as a fallback for missed
	// events. Zero disables polling.
	PollInterval time.Duration
}

// NewInbox creates an inbox for viewerID and subscribes it to the messages
// change feed. Call Close on teardown.
func NewInbox(lister ConversationLister, broker realtime.Broker, viewerID string, cfg InboxConfig, logger *slog.Logger) (*Inbox, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ib := &Inbox{
		lister:   lister,
		viewerID: viewerID,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	if broker != nil {
		sub, err := broker.Subscribe(realtime.TableMessages, func(ev realtime.Event) {
			if !ev.Concerns(viewerID) {
				return
			}
			ib.refreshBestEffort()
		})
		if err != nil {
			return nil, err
		}
		ib.sub = sub
	}

	if cfg.PollInterval > 0 {
		ib.wg.Add(1)
		go ib.pollLoop(cfg.PollInterval)
	}

	return ib, nil
}

// Refresh re-runs the fetch-and-recompute cycle. The result is applied only
// if no newer fetch has been issued in the meantime and the inbox is open.
func (ib *Inbox) Refresh(ctx context.Context) error {
	ib.mu.Lock()
	if ib.closed {
		ib.mu.Unlock()
		return nil
	}
	ib.seq++
	token := ib.seq
	ib.mu.Unlock()

	convs, err := ib.lister.ListConversations(ctx, ib.viewerID)
	if err != nil {
		return err
	}

	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed || token < ib.seq || token <= ib.applied {
		// a newer fetch was issued or already landed
		return nil
	}
	ib.applied = token
	ib.conversations = convs
	return nil
}

// Snapshot returns a copy of the current conversation list
func (ib *Inbox) Snapshot() []entity.Conversation {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	out := make([]entity.Conversation, len(ib.conversations))
	copy(out, ib.conversations)
	return out
}

// UnreadTotal returns the number of unread messages across all conversations
func (ib *Inbox) UnreadTotal() int {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return entity.UnreadTotal(ib.conversations)
}

// Close unsubscribes from the change feed and prevents any in-flight fetch
// from mutating state.
func (ib *Inbox) Close() error {
	ib.mu.Lock()
	if ib.closed {
		ib.mu.Unlock()
		return nil
	}
	ib.closed = true
	close(ib.stopCh)
	ib.mu.Unlock()

	var err error
	if ib.sub != nil {
		err = ib.sub.Unsubscribe()
	}
	ib.wg.Wait()
	return err
}

func (ib *Inbox) pollLoop(interval time.Duration) {
	defer ib.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ib.stopCh:
			return
		case <-ticker.C:
			ib.refreshBestEffort()
		}
	}
}

// refreshBestEffort logs failures instead of interrupting the viewer
func (ib *Inbox) refreshBestEffort() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ib.Refresh(ctx); err != nil {
		ib.logger.Warn("inbox refresh failed", "viewer", ib.viewerID, "error", err)
	}
}
