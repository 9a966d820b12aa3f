package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

// ChatService is the chat router. The message is persisted first; the live
// push that follows is best effort and never fails the call.
type ChatService struct {
	repo     ports.ChatRepository
	notifier ports.ChatNotifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewChatService(repo ports.ChatRepository, notifier ports.ChatNotifier, log zerolog.Logger) *ChatService {
	if notifier == nil {
		notifier = ports.NopChatNotifier()
	}
	return &ChatService{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SendUserMessage stores an unread message and broadcasts it to connected admins.
func (s *ChatService) SendUserMessage(ctx context.Context, userID, content string) (*domain.ChatMessage, error) {
	now := s.now()
	msg := &domain.ChatMessage{
		UserID:    userID,
		Content:   content,
		Status:    domain.ChatUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("send user message: %w", err)
	}

	metrics.ChatMessagesTotal.WithLabelValues("user_message").Inc()
	s.log.Debug().Str("user_id", userID).Str("message_id", msg.ID).Msg("chat message stored")

	s.notifier.NewMessage(msg)
	return msg, nil
}

// SendAdminReply attaches the reply and pushes it to the original sender if
// they are connected.
func (s *ChatService) SendAdminReply(ctx context.Context, messageID, adminID, content string) (*domain.ChatMessage, error) {
	msg, err := s.repo.Reply(ctx, messageID, adminID, content, s.now())
	if err != nil {
		return nil, fmt.Errorf("send admin reply: %w", err)
	}

	metrics.ChatMessagesTotal.WithLabelValues("admin_reply").Inc()
	s.log.Debug().Str("admin_id", adminID).Str("message_id", msg.ID).Msg("chat reply stored")

	s.notifier.AdminReply(msg)
	return msg, nil
}

func (s *ChatService) MarkRead(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	msg, err := s.repo.MarkRead(ctx, messageID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return msg, nil
}

func (s *ChatService) List(ctx context.Context, filter ports.ChatFilter) ([]*domain.ChatMessage, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.List(ctx, filter)
}
