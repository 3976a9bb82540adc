package repository

import (
	"context"
	"errors"
	"time"

	"leadmsg/backend/messaging/models"

	"gorm.io/gorm"
)

// ConversationRepository persists conversations and their participant sets.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation, participants []models.Participant) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	// FindDirectByPair returns the direct conversation whose participant
	// set is exactly {a, b}, or nil when none exists.
	FindDirectByPair(ctx context.Context, a, b string) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	GetParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, conversationID string) ([]models.Participant, error)
	UpdateName(ctx context.Context, conversationID string, name *string) error
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
	CountParticipants(ctx context.Context, conversationID string) (int64, error)
	Delete(ctx context.Context, conversationID string) error
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) Create(ctx context.Context, conv *models.Conversation, participants []models.Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ConversationID = conv.ID
		}
		return tx.Create(&participants).Error
	})
}

func (r *GormConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *GormConversationRepository) FindDirectByPair(ctx context.Context, a, b string) (*models.Conversation, error) {
	// A direct conversation holds exactly two participants for its whole
	// lifetime, so matching both user ids is sufficient.
	var id string
	err := r.db.WithContext(ctx).
		Table("conversations").
		Select("conversations.id").
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("conversations.kind = ?", models.KindDirect).
		Where("participants.user_id IN ?", []string{a, b}).
		Group("conversations.id").
		Having("COUNT(DISTINCT participants.user_id) = 2").
		Limit(1).
		Scan(&id).Error
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *GormConversationRepository) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *GormConversationRepository) GetParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		First(&participant, "conversation_id = ? AND user_id = ?", conversationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

func (r *GormConversationRepository) ListParticipants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&participants).Error
	return participants, err
}

func (r *GormConversationRepository) UpdateName(ctx context.Context, conversationID string, name *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("name", name).Error
}

// MarkRead advances the participant's watermark. The guard keeps the
// watermark monotonic under concurrent calls.
func (r *GormConversationRepository) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Where("last_read_at IS NULL OR last_read_at < ?", at).
		Update("last_read_at", at).Error
}

func (r *GormConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.Participant{}, "conversation_id = ? AND user_id = ?", conversationID, userID).Error
}

func (r *GormConversationRepository) CountParticipants(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// Delete removes the conversation row; messages and attachments go with it
// via the database's cascade rules.
func (r *GormConversationRepository) Delete(ctx context.Context, conversationID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.Conversation{}, "id = ?", conversationID).Error
}
