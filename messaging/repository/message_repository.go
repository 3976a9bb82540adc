package repository

import (
	"context"
	"errors"
	"time"

	"leadmsg/backend/messaging/models"

	"gorm.io/gorm"
)

// MessageRepository persists messages and attachments. Writes that touch a
// conversation's recency run inside a single transaction so directory
// ordering reflects new activity immediately.
type MessageRepository interface {
	// CreateWithAttachments inserts the message, its attachment rows (if
	// any), and bumps the conversation's updated_at, all in one transaction.
	CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error
	ListPage(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, int64, error)
	LastMessage(ctx context.Context, conversationID string) (*models.Message, error)
	// UnreadCount counts messages from other senders created after the
	// watermark; a nil watermark counts all messages from other senders.
	UnreadCount(ctx context.Context, conversationID, userID string, lastReadAt *time.Time) (int64, error)
	// AttachmentPaths returns every attachment storage path in the
	// conversation, across all its messages.
	AttachmentPaths(ctx context.Context, conversationID string) ([]string, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].MessageID = message.ID
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
			message.Attachments = attachments
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("updated_at", message.CreatedAt).Error
	})
}

func (r *GormMessageRepository) ListPage(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// The id tiebreaker keeps page boundaries stable when two messages
	// share a timestamp.
	var messages []models.Message
	err = r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, total, err
}

func (r *GormMessageRepository) LastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) UnreadCount(ctx context.Context, conversationID, userID string, lastReadAt *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("sender_id != ?", userID)
	if lastReadAt != nil {
		q = q.Where("created_at > ?", *lastReadAt)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) AttachmentPaths(ctx context.Context, conversationID string) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Joins("JOIN messages ON messages.id = attachments.message_id").
		Where("messages.conversation_id = ?", conversationID).
		Pluck("attachments.file_path", &paths).Error
	return paths, err
}
