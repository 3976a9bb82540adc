package service

import (
	"context"

	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
	"leadmsg/backend/shared/observability"
)

// LifecycleService handles participants leaving conversations and the
// teardown that follows when the last one goes.
type LifecycleService struct {
	convs repository.ConversationRepository
	msgs  repository.MessageRepository
	store storage.Gateway
	log   *logger.Logger
}

func NewLifecycleService(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	store storage.Gateway,
	log *logger.Logger,
) *LifecycleService {
	return &LifecycleService{convs: convs, msgs: msgs, store: store, log: log}
}

// Leave removes the caller from the conversation. When the departing
// caller was the last participant, the conversation is torn down: its
// attachment objects are deleted from storage best-effort, then the
// conversation row is deleted and participants, messages, and attachment
// rows go with it by cascade.
//
// Storage deletion runs before the row delete because the attachment
// paths are unreachable afterwards. A failed object delete is logged and
// skipped; the database teardown still proceeds, since rows are the
// source of truth and a leaked blob is recoverable while a half-deleted
// conversation is not.
func (s *LifecycleService) Leave(ctx context.Context, conversationID, callerID string) error {
	defer observe("leave_conversation")()

	if _, err := requireParticipant(ctx, s.convs, conversationID, callerID); err != nil {
		return err
	}
	if err := s.convs.RemoveParticipant(ctx, conversationID, callerID); err != nil {
		return errors.NewPersistenceError("failed to leave conversation")
	}

	remaining, err := s.convs.CountParticipants(ctx, conversationID)
	if err != nil {
		return errors.NewPersistenceError("failed to count participants")
	}
	if remaining > 0 {
		return nil
	}

	// The last participant is already out; teardown must finish even if
	// they hang up mid-request, so it runs detached from their
	// cancellation.
	ctx = context.WithoutCancel(ctx)

	paths, err := s.msgs.AttachmentPaths(ctx, conversationID)
	if err != nil {
		return errors.NewPersistenceError("failed to list conversation attachments")
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.store.Delete(ctx, path); err != nil {
			s.log.LogError(err, "teardown could not delete attachment object",
				"conversation_id", conversationID,
				"path", path,
			)
		}
	}

	if err := s.convs.Delete(ctx, conversationID); err != nil {
		return errors.NewPersistenceError("failed to delete conversation")
	}
	observability.ConversationsTornDown.Inc()

	s.log.Info("conversation torn down",
		"conversation_id", conversationID,
		"attachments_removed", len(paths),
	)
	return nil
}
