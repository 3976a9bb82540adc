package repository

import (
	"context"
	"testing"
	"time"

	"leadmsg/backend/messaging/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepos(t *testing.T) (*GormConversationRepository, *GormMessageRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Conversation{},
		&models.Participant{},
		&models.Message{},
		&models.Attachment{},
	))
	return NewGormConversationRepository(db), NewGormMessageRepository(db)
}

func seedConversation(t *testing.T, convs *GormConversationRepository) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{Kind: models.KindGroup}
	participants := []models.Participant{
		{UserID: "user-a"},
		{UserID: "user-b"},
	}
	require.NoError(t, convs.Create(context.Background(), conv, participants))
	return conv
}

func TestListPageOrdersTimestampTiesByID(t *testing.T) {
	convs, msgs := newTestRepos(t)
	ctx := context.Background()
	conv := seedConversation(t, convs)

	// Three messages sharing one commit timestamp; ids chosen out of
	// insertion order so only the tiebreaker can sort them.
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"cccccccc-0000-0000-0000-000000000000",
		"aaaaaaaa-0000-0000-0000-000000000000",
		"bbbbbbbb-0000-0000-0000-000000000000"} {
		m := &models.Message{
			ID:             id,
			ConversationID: conv.ID,
			SenderID:       "user-a",
			Content:        "tied",
			CreatedAt:      at,
		}
		require.NoError(t, msgs.CreateWithAttachments(ctx, m, nil))
	}

	// Page of one at a time; each message must appear exactly once, in
	// id order, regardless of insertion order.
	var seen []string
	for offset := 0; offset < 3; offset++ {
		page, total, err := msgs.ListPage(ctx, conv.ID, 1, offset)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.EqualValues(t, 3, total)
		seen = append(seen, page[0].ID)
	}
	assert.Equal(t, []string{
		"aaaaaaaa-0000-0000-0000-000000000000",
		"bbbbbbbb-0000-0000-0000-000000000000",
		"cccccccc-0000-0000-0000-000000000000",
	}, seen)
}

func TestLastMessageBreaksTimestampTiesByID(t *testing.T) {
	convs, msgs := newTestRepos(t)
	ctx := context.Background()
	conv := seedConversation(t, convs)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"bbbbbbbb-0000-0000-0000-000000000000",
		"aaaaaaaa-0000-0000-0000-000000000000"} {
		m := &models.Message{
			ID:             id,
			ConversationID: conv.ID,
			SenderID:       "user-a",
			Content:        "tied",
			CreatedAt:      at,
		}
		require.NoError(t, msgs.CreateWithAttachments(ctx, m, nil))
	}

	last, err := msgs.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "bbbbbbbb-0000-0000-0000-000000000000", last.ID)
}
