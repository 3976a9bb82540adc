package service

import (
	"context"
	"io"
	"testing"
	"time"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/cache"
	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

// stubDirectory resolves users from a fixed map, reporting the rest missing.
type stubDirectory struct {
	users map[string]UserInfo
}

func (s *stubDirectory) Resolve(_ context.Context, ids []string) (map[string]UserInfo, error) {
	out := make(map[string]UserInfo, len(ids))
	var missing []string
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError("unknown users").WithDetails(missing)
	}
	return out, nil
}

type fixture struct {
	db    *gorm.DB
	store *storage.MemoryGateway
	convs repository.ConversationRepository
	msgs  repository.MessageRepository
	svcs  *Services
}

func newFixture(t *testing.T, users ...UserInfo) *fixture {
	t.Helper()
	db := newTestDB(t)
	store := storage.NewMemoryGateway()
	convs := repository.NewGormConversationRepository(db)
	msgs := repository.NewGormMessageRepository(db)

	dir := &stubDirectory{users: map[string]UserInfo{}}
	for _, u := range users {
		dir.users[u.ID] = u
	}

	svcs := NewServices(convs, msgs, dir, store, cache.NewCache(cache.DefaultOptions()), time.Hour, DefaultLimits(), quietLogger())
	return &fixture{db: db, store: store, convs: convs, msgs: msgs, svcs: svcs}
}

// directConversation seeds a direct conversation between a and b.
func (f *fixture) directConversation(t *testing.T, a, b string) *models.Conversation {
	t.Helper()
	conv, err := f.svcs.Directory.CreateOrGetDirect(context.Background(), a, b)
	require.NoError(t, err)
	return conv
}

// groupConversation seeds a group with the caller plus members.
func (f *fixture) groupConversation(t *testing.T, caller string, members ...string) *models.Conversation {
	t.Helper()
	conv, err := f.svcs.Directory.CreateGroup(context.Background(), caller, members, "")
	require.NoError(t, err)
	return conv
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.HasCode(err, code), "expected code %s, got %v", code, err)
}
