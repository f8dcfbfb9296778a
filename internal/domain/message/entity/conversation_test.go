package entity

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConversationKeyOrderIndependent(t *testing.T) {
	k1 := ConversationKey("u1", "u2")
	k2 := ConversationKey("u2", "u1")

	if k1 != k2 {
		t.Errorf("expected same key for both orders, got %q and %q", k1, k2)
	}
	if k1 != "u1-u2" {
		t.Errorf("expected key u1-u2, got %q", k1)
	}
}

func TestKeyCounterparty(t *testing.T) {
	// UUIDs contain the separator themselves, so the key cannot be split
	// blindly
	alice := "11111111-1111-1111-1111-111111111111"
	bob := "22222222-2222-2222-2222-222222222222"
	key := ConversationKey(alice, bob)

	tests := []struct {
		name    string
		key     string
		viewer  string
		want    string
		wantErr error
	}{
		{"viewer is first participant", key, alice, bob, nil},
		{"viewer is second participant", key, bob, alice, nil},
		{"viewer not in key", key, "99999999-9999-9999-9999-999999999999", "", ErrNotParticipant},
		{"short ids", "u1-u2", "u2", "u1", nil},
		{"empty viewer", key, "", "", ErrInvalidConversationKey},
		{"malformed key", "nodash", alice, "", ErrInvalidConversationKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyCounterparty(tt.key, tt.viewer)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected counterparty %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildConversations(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "m1", SenderID: "u1", RecipientID: "u2", Content: "hey", IsRead: true, CreatedAt: base},
		{ID: "m2", SenderID: "u2", RecipientID: "u1", Content: "hi", IsRead: false, CreatedAt: base.Add(time.Minute)},
		{ID: "m3", SenderID: "u2", RecipientID: "u1", Content: "you there?", IsRead: false, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m4", SenderID: "u3", RecipientID: "u1", Content: "lunch?", IsRead: true, CreatedAt: base.Add(time.Minute)},
	}

	convs := BuildConversations(msgs, "u1")

	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}

	first := convs[0]
	if first.Key != "u1-u2" {
		t.Errorf("expected key u1-u2, got %q", first.Key)
	}
	if first.LastMessage.Content != "you there?" {
		t.Errorf("expected preview %q, got %q", "you there?", first.LastMessage.Content)
	}
	if first.UnreadCount != 2 {
		t.Errorf("expected 2 unread, got %d", first.UnreadCount)
	}

	second := convs[1]
	if second.Key != ConversationKey("u1", "u3") {
		t.Errorf("expected u1/u3 conversation second, got %q", second.Key)
	}
	if second.UnreadCount != 0 {
		t.Errorf("expected 0 unread, got %d", second.UnreadCount)
	}
}

func TestBuildConversationsInputOrderIrrelevant(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "m2", SenderID: "u2", RecipientID: "u1", Content: "second", CreatedAt: base.Add(time.Minute)},
		{ID: "m1", SenderID: "u1", RecipientID: "u2", Content: "first", CreatedAt: base},
	}

	convs := BuildConversations(msgs, "u1")
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if convs[0].LastMessage.ID != "m2" {
		t.Errorf("expected preview m2, got %q", convs[0].LastMessage.ID)
	}
}

func TestBuildConversationsTimestampTieBreak(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "a", SenderID: "u2", RecipientID: "u1", Content: "one", CreatedAt: at},
		{ID: "b", SenderID: "u1", RecipientID: "u2", Content: "two", CreatedAt: at},
	}

	convs := BuildConversations(msgs, "u1")
	if convs[0].LastMessage.ID != "b" {
		t.Errorf("expected higher id to win the tie, got %q", convs[0].LastMessage.ID)
	}
}

func TestBuildConversationsCounterpartFromEitherSide(t *testing.T) {
	// The profile summary may only be attached on one side of the exchange
	msgs := []Message{
		{ID: "m1", SenderID: "u1", RecipientID: "u2", CreatedAt: time.Now()},
		{ID: "m2", SenderID: "u2", RecipientID: "u1", CreatedAt: time.Now().Add(time.Second),
			Sender: &ProfileSummary{UserID: "u2", Username: "sam"}},
	}

	convs := BuildConversations(msgs, "u1")
	if convs[0].Counterpart == nil || convs[0].Counterpart.Username != "sam" {
		t.Errorf("expected counterpart profile to be filled from later message")
	}
}

func TestUnreadTotal(t *testing.T) {
	convs := []Conversation{
		{UnreadCount: 2},
		{UnreadCount: 0},
		{UnreadCount: 3},
	}
	if got := UnreadTotal(convs); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"ok", "hello", nil},
		{"empty", "", ErrEmptyMessage},
		{"whitespace only", "   \n\t", ErrEmptyMessage},
		{"too long", strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateContent(tt.content); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
