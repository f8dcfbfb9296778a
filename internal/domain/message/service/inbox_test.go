package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/realtime"
)

type scriptedLister struct {
	mu      sync.Mutex
	calls   int
	results [][]entity.Conversation
	// block, when set for a call index (1-based), is waited on before the
	// result is returned
	block map[int]chan struct{}
}

func (s *scriptedLister) ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	var result []entity.Conversation
	if len(s.results) > 0 {
		result = s.results[0]
		if len(s.results) > 1 {
			s.results = s.results[1:]
		}
	}
	gate := s.block[call]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, nil
}

func (s *scriptedLister) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func conv(key string, unread int) entity.Conversation {
	return entity.Conversation{Key: key, UnreadCount: unread}
}

func TestInboxRefreshAppliesResult(t *testing.T) {
	lister := &scriptedLister{results: [][]entity.Conversation{{conv("u1-u2", 3)}}}
	ib, err := NewInbox(lister, nil, "u1", InboxConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ib.Close()

	if err := ib.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if got := ib.UnreadTotal(); got != 3 {
		t.Errorf("expected 3 unread, got %d", got)
	}
	snap := ib.Snapshot()
	if len(snap) != 1 || snap[0].Key != "u1-u2" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestInboxStaleFetchDiscarded(t *testing.T) {
	gate := make(chan struct{})
	lister := &scriptedLister{
		results: [][]entity.Conversation{
			{conv("u1-u2", 9)}, // slow, stale
			{conv("u1-u2", 1)}, // fresh
		},
		block: map[int]chan struct{}{1: gate},
	}
	ib, err := NewInbox(lister, nil, "u1", InboxConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ib.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// First fetch: issued first, completes last
		_ = ib.Refresh(context.Background())
	}()

	// Wait for the first fetch to be in flight before issuing the second
	for lister.callCount() < 1 {
		time.Sleep(time.Millisecond)
	}

	if err := ib.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if got := ib.UnreadTotal(); got != 1 {
		t.Fatalf("expected fresh result applied, got unread %d", got)
	}

	// Release the stale fetch; its completion must not overwrite the newer one
	close(gate)
	wg.Wait()

	if got := ib.UnreadTotal(); got != 1 {
		t.Errorf("stale fetch overwrote fresh state: unread %d", got)
	}
}

func TestInboxClosedRefreshIsNoOp(t *testing.T) {
	lister := &scriptedLister{results: [][]entity.Conversation{{conv("u1-u2", 5)}}}
	ib, err := NewInbox(lister, nil, "u1", InboxConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ib.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if err := ib.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after close should be silent: %v", err)
	}
	if got := ib.UnreadTotal(); got != 0 {
		t.Errorf("closed inbox must not apply state, got unread %d", got)
	}
	if lister.callCount() != 0 {
		t.Errorf("closed inbox must not fetch, got %d calls", lister.callCount())
	}
}

type handlerBroker struct {
	fakeBroker
	mu       sync.Mutex
	handlers map[string]func(realtime.Event)
}

func (b *handlerBroker) Subscribe(table string, handler func(realtime.Event)) (realtime.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = map[string]func(realtime.Event){}
	}
	b.handlers[table] = handler
	return fakeSubscription{}, nil
}

func (b *handlerBroker) emit(ev realtime.Event) {
	b.mu.Lock()
	h := b.handlers[ev.Table]
	b.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func TestInboxRefreshesOnRelevantEvent(t *testing.T) {
	lister := &scriptedLister{results: [][]entity.Conversation{{conv("u1-u2", 1)}}}
	broker := &handlerBroker{}
	ib, err := NewInbox(lister, broker, "u1", InboxConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ib.Close()

	// Event addressed to another user is ignored
	broker.emit(realtime.Event{Table: realtime.TableMessages, ActorID: "u8", TargetID: "u9"})
	if lister.callCount() != 0 {
		t.Errorf("irrelevant event should not trigger a fetch, got %d", lister.callCount())
	}

	// Event addressed to the viewer triggers a re-fetch
	broker.emit(realtime.Event{Table: realtime.TableMessages, ActorID: "u2", TargetID: "u1"})
	if lister.callCount() != 1 {
		t.Errorf("expected 1 fetch after relevant event, got %d", lister.callCount())
	}
	if got := ib.UnreadTotal(); got != 1 {
		t.Errorf("expected unread 1, got %d", got)
	}
}
