package service

import (
	"time"

	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/cache"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
)

// Services bundles the messaging services behind a single constructor so
// they share one presenter and one logger.
type Services struct {
	Directory *DirectoryService
	Ledger    *LedgerService
	Uploader  *UploaderService
	ReadState *ReadStateService
	Lifecycle *LifecycleService
}

func NewServices(
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	users UserDirectory,
	store storage.Gateway,
	names cache.Store,
	urlTTL time.Duration,
	limits Limits,
	log *logger.Logger,
) *Services {
	pres := newPresenter(store, urlTTL, log)
	return &Services{
		Directory: NewDirectoryService(convs, msgs, users, names, pres, log.WithComponent("directory")),
		Ledger:    NewLedgerService(convs, msgs, pres, limits),
		Uploader:  NewUploaderService(convs, msgs, store, pres, limits, log.WithComponent("uploader")),
		ReadState: NewReadStateService(convs, log.WithComponent("readstate")),
		Lifecycle: NewLifecycleService(convs, msgs, store, log.WithComponent("lifecycle")),
	}
}
