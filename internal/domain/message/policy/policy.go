package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/domain/message/service"
	"github.com/eldar/school-social/internal/realtime"
)

// MessageService defines the interface for the message service
type MessageService interface {
	ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error)
	OpenConversation(ctx context.Context, viewerID, key string) (*service.OpenConversationOutput, error)
	SendMessage(ctx context.Context, in service.SendMessageInput) (*entity.Message, error)
	StartConversation(viewerID, otherID string) (string, error)
}

// Policy guards message operations with viewer identity and owns the
// long-lived per-viewer inboxes.
type Policy struct {
	svc    MessageService
	broker realtime.Broker
	cfg    service.InboxConfig
	logger *slog.Logger

	mu      sync.Mutex
	inboxes map[string]*service.Inbox
}

// New creates a new message policy
func New(svc MessageService, broker realtime.Broker, cfg service.InboxConfig, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		svc:     svc,
		broker:  broker,
		cfg:     cfg,
		logger:  logger,
		inboxes: map[string]*service.Inbox{},
	}
}

// ListConversations returns the viewer's conversation list
func (p *Policy) ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error) {
	if viewerID == "" {
		return nil, entity.ErrNotParticipant
	}
	return p.svc.ListConversations(ctx, viewerID)
}

// OpenConversation returns a transcript the viewer participates in. The
// participant check is done inside the service via the conversation key.
func (p *Policy) OpenConversation(ctx context.Context, viewerID, key string) (*service.OpenConversationOutput, error) {
	if viewerID == "" {
		return nil, entity.ErrNotParticipant
	}
	return p.svc.OpenConversation(ctx, viewerID, key)
}

// SendMessage sends a message within a conversation the viewer belongs to
func (p *Policy) SendMessage(ctx context.Context, viewerID, key, content string) (*entity.Message, error) {
	if viewerID == "" {
		return nil, entity.ErrNotParticipant
	}
	return p.svc.SendMessage(ctx, service.SendMessageInput{
		ViewerID: viewerID,
		Key:      key,
		Content:  content,
	})
}

// StartConversation synthesizes a key for messaging a user with no prior
// history
func (p *Policy) StartConversation(viewerID, otherID string) (string, error) {
	return p.svc.StartConversation(viewerID, otherID)
}

// UnreadCount reports the viewer's total unread messages from their inbox,
// creating and priming the inbox on first use.
func (p *Policy) UnreadCount(ctx context.Context, viewerID string) (int, error) {
	if viewerID == "" {
		return 0, entity.ErrNotParticipant
	}
	ib, created, err := p.ensureInbox(viewerID)
	if err != nil {
		return 0, fmt.Errorf("creating inbox: %w", err)
	}
	if created {
		if err := ib.Refresh(ctx); err != nil {
			return 0, fmt.Errorf("priming inbox: %w", err)
		}
	}
	return ib.UnreadTotal(), nil
}

// Shutdown closes every open inbox
func (p *Policy) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for viewerID, ib := range p.inboxes {
		if err := ib.Close(); err != nil {
			p.logger.Warn("closing inbox failed", "viewer", viewerID, "error", err)
		}
		delete(p.inboxes, viewerID)
	}
}

func (p *Policy) ensureInbox(viewerID string) (*service.Inbox, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ib, ok := p.inboxes[viewerID]; ok {
		return ib, false, nil
	}
	ib, err := service.NewInbox(p.svc, p.broker, viewerID, p.cfg, p.logger)
	if err != nil {
		return nil, false, err
	}
	p.inboxes[viewerID] = ib
	return ib, true, nil
}
