package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/realtime"
)

type fakeMessageRepo struct {
	messages  []entity.Message
	inserted  []*entity.Message
	markCalls int
	marked    int64

	insertErr error
	listErr   error
}

func (f *fakeMessageRepo) ListForUser(ctx context.Context, userID string) ([]entity.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

func (f *fakeMessageRepo) ListBetween(ctx context.Context, a, b string) ([]entity.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

func (f *fakeMessageRepo) Insert(ctx context.Context, msg *entity.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	msg.ID = "generated"
	f.inserted = append(f.inserted, msg)
	return nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	f.markCalls++
	return f.marked, nil
}

type fakeBroker struct {
	published []realtime.Event
}

func (f *fakeBroker) Publish(ctx context.Context, ev realtime.Event) error {
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeBroker) Subscribe(table string, handler func(realtime.Event)) (realtime.Subscription, error) {
	return fakeSubscription{}, nil
}

func (f *fakeBroker) Close() {}

type fakeSubscription struct{}

func (fakeSubscription) Unsubscribe() error { return nil }

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := New(repo, nil, Config{}, nil)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(context.Background(), SendMessageInput{
			ViewerID: "u1",
			Key:      "u1-u2",
			Content:  content,
		})
		if !errors.Is(err, entity.ErrEmptyMessage) {
			t.Errorf("content %q: expected ErrEmptyMessage, got %v", content, err)
		}
	}

	if len(repo.inserted) != 0 {
		t.Errorf("expected no inserts for invalid drafts, got %d", len(repo.inserted))
	}
}

func TestSendMessageDerivesRecipient(t *testing.T) {
	repo := &fakeMessageRepo{}
	broker := &fakeBroker{}
	svc := New(repo, broker, Config{}, nil)

	msg, err := svc.SendMessage(context.Background(), SendMessageInput{
		ViewerID: "u2",
		Key:      "u1-u2",
		Content:  "hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.SenderID != "u2" || msg.RecipientID != "u1" {
		t.Errorf("expected u2 -> u1, got %s -> %s", msg.SenderID, msg.RecipientID)
	}
	if msg.IsRead {
		t.Error("new message must start unread")
	}

	if len(broker.published) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(broker.published))
	}
	ev := broker.published[0]
	if ev.Table != realtime.TableMessages || ev.TargetID != "u1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestSendMessageOutsiderRejected(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := New(repo, nil, Config{}, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		ViewerID: "u9",
		Key:      "u1-u2",
		Content:  "hi",
	})
	if !errors.Is(err, entity.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("outsider must not reach the store")
	}
}

func TestSendMessageStoreFailure(t *testing.T) {
	repo := &fakeMessageRepo{insertErr: errors.New("connection reset")}
	svc := New(repo, nil, Config{}, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		ViewerID: "u1",
		Key:      "u1-u2",
		Content:  "hi",
	})
	if !errors.Is(err, entity.ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}

func TestSendMessageRateLimited(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := New(repo, nil, Config{SendPerMinute: 2}, nil)

	in := SendMessageInput{ViewerID: "u1", Key: "u1-u2", Content: "hi"}
	for i := 0; i < 2; i++ {
		if _, err := svc.SendMessage(context.Background(), in); err != nil {
			t.Fatalf("send %d: unexpected error: %v", i, err)
		}
	}

	_, err := svc.SendMessage(context.Background(), in)
	if !errors.Is(err, entity.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after burst, got %v", err)
	}
	if len(repo.inserted) != 2 {
		t.Errorf("expected 2 stored messages, got %d", len(repo.inserted))
	}
}

func TestOpenConversationMarksRead(t *testing.T) {
	repo := &fakeMessageRepo{
		messages: []entity.Message{
			{ID: "m1", SenderID: "u2", RecipientID: "u1", IsRead: false, CreatedAt: time.Now()},
			{ID: "m2", SenderID: "u1", RecipientID: "u2", IsRead: false, CreatedAt: time.Now()},
		},
		marked: 1,
	}
	svc := New(repo, nil, Config{}, nil)

	out, err := svc.OpenConversation(context.Background(), "u1", "u1-u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.markCalls != 1 {
		t.Errorf("expected a single bulk acknowledgement, got %d calls", repo.markCalls)
	}
	if out.MarkedRead != 1 {
		t.Errorf("expected 1 marked read, got %d", out.MarkedRead)
	}

	// Returned transcript reflects the acknowledgement without a re-fetch
	for _, m := range out.Messages {
		if m.RecipientID == "u1" && !m.IsRead {
			t.Errorf("message %s addressed to viewer should be read", m.ID)
		}
		if m.SenderID == "u1" && m.IsRead {
			t.Errorf("message %s sent by viewer must keep its flag", m.ID)
		}
	}
}

func TestOpenConversationAnnouncesAcknowledgement(t *testing.T) {
	repo := &fakeMessageRepo{
		messages: []entity.Message{
			{ID: "m1", SenderID: "u2", RecipientID: "u1", IsRead: false, CreatedAt: time.Now()},
		},
		marked: 1,
	}
	broker := &fakeBroker{}
	svc := New(repo, broker, Config{}, nil)

	if _, err := svc.OpenConversation(context.Background(), "u1", "u1-u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The viewer's unread counter rebuilds off change events, so the bulk
	// acknowledgement has to publish one addressed to the viewer.
	if len(broker.published) != 1 {
		t.Fatalf("expected 1 change event, got %d", len(broker.published))
	}
	ev := broker.published[0]
	if ev.Table != realtime.TableMessages || ev.Action != realtime.ActionUpdate {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.TargetID != "u1" {
		t.Errorf("event must target the acknowledging viewer, got %q", ev.TargetID)
	}
}

func TestOpenConversationNothingToAcknowledge(t *testing.T) {
	repo := &fakeMessageRepo{
		messages: []entity.Message{
			{ID: "m1", SenderID: "u1", RecipientID: "u2", IsRead: true, CreatedAt: time.Now()},
		},
		marked: 0,
	}
	broker := &fakeBroker{}
	svc := New(repo, broker, Config{}, nil)

	if _, err := svc.OpenConversation(context.Background(), "u1", "u1-u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broker.published) != 0 {
		t.Errorf("no rows changed, expected no change event, got %d", len(broker.published))
	}
}

func TestOpenConversationRejectsOutsider(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := New(repo, nil, Config{}, nil)

	_, err := svc.OpenConversation(context.Background(), "u9", "u1-u2")
	if !errors.Is(err, entity.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if repo.markCalls != 0 {
		t.Error("no acknowledgement should happen for outsiders")
	}
}

func TestStartConversation(t *testing.T) {
	svc := New(&fakeMessageRepo{}, nil, Config{}, nil)

	key, err := svc.StartConversation("u2", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "u1-u2" {
		t.Errorf("expected canonical key u1-u2, got %q", key)
	}

	if _, err := svc.StartConversation("u1", "u1"); !errors.Is(err, entity.ErrSelfConversation) {
		t.Errorf("expected ErrSelfConversation, got %v", err)
	}
	if _, err := svc.StartConversation("u1", ""); !errors.Is(err, entity.ErrInvalidConversationKey) {
		t.Errorf("expected ErrInvalidConversationKey, got %v", err)
	}
}

func TestListConversations(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeMessageRepo{
		messages: []entity.Message{
			{ID: "m1", SenderID: "u2", RecipientID: "u1", Content: "hi", CreatedAt: base},
			{ID: "m2", SenderID: "u3", RecipientID: "u1", Content: "yo", CreatedAt: base.Add(time.Hour)},
		},
	}
	svc := New(repo, nil, Config{}, nil)

	convs, err := svc.ListConversations(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].LastMessage.ID != "m2" {
		t.Errorf("expected newest conversation first, got %q", convs[0].LastMessage.ID)
	}
}
