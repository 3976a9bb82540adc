// Package messaging wires the messaging feature: repositories, services,
// and the adapter from the user feature into the directory's view of users.
package messaging

import (
	"context"
	"time"

	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/messaging/service"
	"leadmsg/backend/pkg/cache"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
	usersvc "leadmsg/backend/user/service"

	"gorm.io/gorm"
)

// userDirectoryAdapter narrows the user service to the lookup the
// messaging services need.
type userDirectoryAdapter struct {
	users *usersvc.UserService
}

func (a *userDirectoryAdapter) Resolve(ctx context.Context, ids []string) (map[string]service.UserInfo, error) {
	found, err := a.users.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]service.UserInfo, len(found))
	for id, u := range found {
		out[id] = service.UserInfo{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

// NewServicesWithDI wires the messaging feature on top of the shared
// database handle, storage gateway, and cache store.
func NewServicesWithDI(
	db *gorm.DB,
	users *usersvc.UserService,
	store storage.Gateway,
	names cache.Store,
	urlTTL time.Duration,
	limits service.Limits,
	log *logger.Logger,
) *service.Services {
	convs := repository.NewGormConversationRepository(db)
	msgs := repository.NewGormMessageRepository(db)
	return service.NewServices(convs, msgs, &userDirectoryAdapter{users: users}, store, names, urlTTL, limits, log)
}
