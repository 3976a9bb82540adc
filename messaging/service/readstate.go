package service

import (
	"context"
	"time"

	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
)

// ReadStateService maintains each participant's read watermark.
type ReadStateService struct {
	convs repository.ConversationRepository
	log   *logger.Logger
}

func NewReadStateService(convs repository.ConversationRepository, log *logger.Logger) *ReadStateService {
	return &ReadStateService{convs: convs, log: log}
}

// MarkRead advances the caller's watermark for the conversation to now.
// The repository guard keeps the watermark monotonic, so a concurrent or
// stale call can never move it backwards.
func (s *ReadStateService) MarkRead(ctx context.Context, conversationID, callerID string) error {
	defer observe("mark_read")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return err
	}
	if err := s.convs.MarkRead(ctx, conversationID, callerID, time.Now().UTC()); err != nil {
		return errors.NewPersistenceError("failed to update read state")
	}
	return nil
}
