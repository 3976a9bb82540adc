package service

import (
	"context"
	"time"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/shared/observability"
)

// Pagination bounds for message history.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// LedgerService reads and appends messages within a conversation the
// caller participates in.
type LedgerService struct {
	convs     repository.ConversationRepository
	msgs      repository.MessageRepository
	presenter *presenter
	limits    Limits
}

func NewLedgerService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	presenter *presenter,
	limits Limits,
) *LedgerService {
	return &LedgerService{convs: convs, msgs: msgs, presenter: presenter, limits: limits.withDefaults()}
}

// ListMessages returns one page of the conversation's history in
// created_at ascending order, plus pagination metadata.
func (s *LedgerService) ListMessages(ctx context.Context, conversationID, callerID string, limit, offset int) (*models.MessagePage, error) {
	defer observe("list_messages")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, total, err := s.msgs.ListPage(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to load messages")
	}

	page := &models.MessagePage{
		Messages: make([]models.MessageResponse, 0, len(messages)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		HasMore:  int64(offset+limit) < total,
	}
	for i := range messages {
		page.Messages = append(page.Messages, s.presenter.message(ctx, &messages[i]))
	}
	return page, nil
}

// SendText appends a text message and bumps the conversation's recency in
// the same transaction.
func (s *LedgerService) SendText(ctx context.Context, conversationID, callerID, content string) (*models.MessageResponse, error) {
	defer observe("send_text")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return nil, err
	}

	trimmed, err := validateContent(content, true, s.limits.MaxContentRunes)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       callerID,
		Content:        trimmed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgs.CreateWithAttachments(ctx, message, nil); err != nil {
		return nil, errors.NewPersistenceError("failed to save message")
	}

	observability.MessagesSent.WithLabelValues("text").Inc()

	resp := s.presenter.message(ctx, message)
	return &resp, nil
}
