// Package service implements the messaging core: the conversation
// directory, the message ledger, the attachment uploader, the read-state
// tracker, and the membership lifecycle.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
)

// MaxContentRunes caps message content length (code points, after trimming).
const MaxContentRunes = 5000

// Limits bounds message content and attachment batches. Values come from
// configuration; zero fields fall back to the defaults.
type Limits struct {
	MaxFilesPerMessage int
	MaxFileSize        int64
	MaxContentRunes    int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFilesPerMessage: MaxFilesPerMessage,
		MaxFileSize:        MaxFileSize,
		MaxContentRunes:    MaxContentRunes,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxFilesPerMessage <= 0 {
		l.MaxFilesPerMessage = MaxFilesPerMessage
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = MaxFileSize
	}
	if l.MaxContentRunes <= 0 {
		l.MaxContentRunes = MaxContentRunes
	}
	return l
}

// UserInfo is the slice of user identity the messaging core needs.
type UserInfo struct {
	ID    string
	Name  string
	Email string
}

// UserDirectory resolves user ids against the identity store. Every id must
// resolve; unresolvable ids yield a ValidationError naming them.
type UserDirectory interface {
	Resolve(ctx context.Context, ids []string) (map[string]UserInfo, error)
}

// requireParticipant gates an operation on conversation membership. A
// missing participant row answers exactly like a missing conversation, so
// non-members cannot discover whether a conversation exists.
func requireParticipant(ctx context.Context, convs repository.ConversationRepository, conversationID, userID string) (*models.Participant, error) {
	participant, err := convs.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to check conversation membership")
	}
	if participant == nil {
		return nil, errors.NewMembershipError()
	}
	return participant, nil
}

// validateContent trims content and enforces the length bound. When
// required is false an empty result is allowed.
func validateContent(content string, required bool, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(content)
	length := utf8.RuneCountInString(trimmed)
	if required && length == 0 {
		return "", errors.NewValidationError("message content must not be empty")
	}
	if length > maxRunes {
		return "", errors.NewValidationError(fmt.Sprintf("message content exceeds %d characters", maxRunes))
	}
	return trimmed, nil
}

// presenter converts persisted messages into client-facing responses,
// swapping durable storage paths for short-lived signed URLs.
type presenter struct {
	store  storage.Gateway
	urlTTL time.Duration
	log    *logger.Logger
}

func newPresenter(store storage.Gateway, urlTTL time.Duration, log *logger.Logger) *presenter {
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &presenter{store: store, urlTTL: urlTTL, log: log}
}

func (p *presenter) message(ctx context.Context, m *models.Message) models.MessageResponse {
	resp := models.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
	for i := range m.Attachments {
		a := &m.Attachments[i]
		url, err := p.store.SignedURL(ctx, a.FilePath, p.urlTTL)
		if err != nil {
			// The attachment row exists either way; an unsignable URL is
			// recoverable by re-fetching, so don't fail the whole message.
			p.log.LogError(err, "failed to sign attachment URL",
				"attachment_id", a.ID,
			)
			url = ""
		}
		resp.Attachments = append(resp.Attachments, models.AttachmentResponse{
			ID:       a.ID,
			FileName: a.FileName,
			FileType: a.FileType,
			FileSize: a.FileSize,
			URL:      url,
		})
	}
	return resp
}
