package service

import (
	"context"
	"testing"

	"leadmsg/backend/pkg/errors"
	"leadmsg/backend/user/models"
	"leadmsg/backend/user/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *UserService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return NewUserService(repository.NewGormUserRepository(db))
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, models.CreateUserRequest{
		Name: "Alice", Email: "alice@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	authed, err := svc.Authenticate(ctx, models.LoginRequest{
		Email: "alice@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, models.LoginRequest{
		Email: "alice@example.com", Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUnauthenticated))
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, models.CreateUserRequest{Name: "Alice", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, models.CreateUserRequest{Name: "Other", Email: "a@example.com", Password: "password2"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestResolveReportsMissingIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alice, err := svc.Signup(ctx, models.CreateUserRequest{Name: "Alice", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	found, err := svc.Resolve(ctx, []string{alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alice", found[alice.ID].Name)

	_, err = svc.Resolve(ctx, []string{alice.ID, "ghost-id"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	appErr := errors.FromError(err)
	assert.Contains(t, appErr.Details, "ghost-id")
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}
