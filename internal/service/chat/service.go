package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goodpsyche/hopebot/backend/internal/model/chat"
	"github.com/goodpsyche/hopebot/backend/internal/store"
)

var (
	ErrUserRequired  = errors.New("user id is required")
	ErrEmptyExchange = errors.New("message content is required")
)

// Service records and reads back each user's single conversation.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService wraps the given store.
func NewService(s store.Store) *Service {
	return &Service{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SaveExchange appends a user message and the bot reply to it as one pair.
func (s *Service) SaveExchange(ctx context.Context, userID, userText, botText string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	if strings.TrimSpace(userText) == "" || strings.TrimSpace(botText) == "" {
		return ErrEmptyExchange
	}

	now := s.now()
	userMsg := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleUser,
		Content:   userText,
		CreatedAt: now,
	}
	botMsg := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleBot,
		Content:   botText,
		CreatedAt: now,
	}
	return s.store.AppendMessages(ctx, userID, userMsg, botMsg)
}

// History returns the full conversation for userID.
func (s *Service) History(ctx context.Context, userID string) ([]chat.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	messages, err := s.store.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

// Recent returns at most limit trailing messages of the conversation.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return []chat.Message{}, nil
	}
	messages, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}
