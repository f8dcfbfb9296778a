package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// ListForUser returns every message where userID is sender or recipient,
	// newest first, with sender/recipient profile summaries attached.
	ListForUser(ctx context.Context, userID string) ([]entity.Message, error)
	// ListBetween returns the full transcript between two users, oldest first.
	ListBetween(ctx context.Context, a, b string) ([]entity.Message, error)
	Insert(ctx context.Context, msg *entity.Message) error
	// MarkRead flips the read flag on every unread message addressed to
	// recipientID from senderID in a single bulk update and reports how many
	// rows changed.
	MarkRead(ctx context.Context, recipientID, senderID string) (int64, error)
}

// Service handles conversation aggregation and message delivery
type Service struct {
	repo   MessageRepository
	broker realtime.Broker
	logger *slog.Logger

	sendLimit rate.Limit
	sendBurst int
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
}

// Config holds tunables for the message service
type Config struct {
	// SendPerMinute limits how many messages one sender may insert per
	// minute. Zero disables the limiter.
	SendPerMinute int
}

// New creates a new message service
func New(repo MessageRepository, broker realtime.Broker, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		broker:   broker,
		logger:   logger,
		limiters: map[string]*rate.Limiter{},
	}
	if cfg.SendPerMinute > 0 {
		s.sendLimit = rate.Every(time.Minute / time.Duration(cfg.SendPerMinute))
		s.sendBurst = cfg.SendPerMinute
	}
	return s
}

// ListConversations derives the conversation list for a viewer from the flat
// message log: one entry per counterparty, newest preview first.
func (s *Service) ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error) {
	msgs, err := s.repo.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return entity.BuildConversations(msgs, viewerID), nil
}

// OpenConversationOutput is the transcript of one conversation
type OpenConversationOutput struct {
	Key      string
	Messages []entity.Message
	// MarkedRead is how many messages were acknowledged by opening.
	MarkedRead int64
}

// OpenConversation returns the full transcript for a conversation key, oldest
// first, and acknowledges every unread message addressed to the viewer in one
// bulk update.
func (s *Service) OpenConversation(ctx context.Context, viewerID, key string) (*OpenConversationOutput, error) {
	otherID, err := entity.KeyCounterparty(key, viewerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListBetween(ctx, viewerID, otherID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	marked, err := s.repo.MarkRead(ctx, viewerID, otherID)
	if err != nil {
		return nil, fmt.Errorf("acknowledging messages: %w", err)
	}
	for i := range msgs {
		if msgs[i].RecipientID == viewerID {
			msgs[i].IsRead = true
		}
	}

	// The viewer's own inbox refreshes off change events, so acknowledging
	// messages must announce itself the same way sending does.
	if marked > 0 {
		s.publish(ctx, realtime.Event{
			Table:    realtime.TableMessages,
			Action:   realtime.ActionUpdate,
			ActorID:  viewerID,
			TargetID: viewerID,
		})
	}

	return &OpenConversationOutput{Key: key, Messages: msgs, MarkedRead: marked}, nil
}

// SendMessageInput represents input for sending a message
type SendMessageInput struct {
	ViewerID string
	Key      string
	Content  string
}

// SendMessage validates the draft, derives the recipient from the
// conversation key and inserts a new unread message row.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*entity.Message, error) {
	if err := entity.ValidateContent(in.Content); err != nil {
		return nil, err
	}

	recipientID, err := entity.KeyCounterparty(in.Key, in.ViewerID)
	if err != nil {
		return nil, err
	}

	if lim := s.limiterFor(in.ViewerID); lim != nil && !lim.Allow() {
		return nil, entity.ErrRateLimited
	}

	msg := &entity.Message{
		SenderID:    in.ViewerID,
		RecipientID: recipientID,
		Content:     in.Content,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSendFailed, err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TableMessages,
		Action:   realtime.ActionInsert,
		RecordID: msg.ID,
		ActorID:  msg.SenderID,
		TargetID: msg.RecipientID,
	})

	return msg, nil
}

// StartConversation synthesizes a conversation key for a pair of users so an
// empty transcript can be opened before any message exists. No store read.
func (s *Service) StartConversation(viewerID, otherID string) (string, error) {
	if viewerID == otherID {
		return "", entity.ErrSelfConversation
	}
	if viewerID == "" || otherID == "" {
		return "", entity.ErrInvalidConversationKey
	}
	return entity.ConversationKey(viewerID, otherID), nil
}

func (s *Service) limiterFor(senderID string) *rate.Limiter {
	if s.sendLimit == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[senderID]
	if !ok {
		lim = rate.NewLimiter(s.sendLimit, s.sendBurst)
		s.limiters[senderID] = lim
	}
	return lim
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing change event failed", "table", ev.Table, "error", err)
	}
}
