// Package di assembles the application's dependency graph.
package di

import (
	"context"
	"fmt"

	"leadmsg/backend/messaging"
	msgsvc "leadmsg/backend/messaging/service"
	"leadmsg/backend/pkg/cache"
	"leadmsg/backend/pkg/config"
	"leadmsg/backend/pkg/jwt"
	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/storage"
	"leadmsg/backend/user"
	usersvc "leadmsg/backend/user/service"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB          *gorm.DB
	Config      *config.Config
	Logger      *logger.Logger
	JWTService  *jwt.Service
	UserService *usersvc.UserService
	Storage     storage.Gateway
	Cache       cache.Store
	Messaging   *msgsvc.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	userService := user.NewServiceWithDI(db)

	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	names := newCache(cfg, log)

	limits := msgsvc.Limits{
		MaxFilesPerMessage: cfg.Upload.MaxFilesPerMessage,
		MaxFileSize:        cfg.Upload.MaxFileSize,
		MaxContentRunes:    cfg.Upload.MaxContentLength,
	}
	messagingServices := messaging.NewServicesWithDI(
		db, userService, store, names, cfg.Storage.URLTTL, limits, log.WithComponent("messaging"),
	)

	return &Container{
		DB:          db,
		Config:      cfg,
		Logger:      log,
		JWTService:  jwtService,
		UserService: userService,
		Storage:     store,
		Cache:       names,
		Messaging:   messagingServices,
	}, nil
}

// newStorage selects the attachment store. Without a configured bucket the
// in-memory gateway is used, which suits local development.
func newStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Gateway, error) {
	if cfg.Storage.Bucket == "" {
		log.Warn("no storage bucket configured, using in-memory attachment store")
		return storage.NewMemoryGateway(), nil
	}
	return storage.NewS3Gateway(ctx, storage.S3Config{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	}, log.WithComponent("storage"))
}

// newCache selects the display-name cache backend, preferring Redis when a
// URL is configured and reachable. A disabled cache yields nil; the
// services treat that as cache-off and resolve names on every lookup.
func newCache(cfg *config.Config, log *logger.Logger) cache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.RedisURL != "" {
		redis := cache.NewRedisStore(cfg.Cache.RedisURL)
		if err := redis.Ping(); err != nil {
			log.Warn("redis unreachable, falling back to in-memory cache", "error", err.Error())
		} else {
			return redis
		}
	}
	return cache.NewCache(cache.Options{
		DefaultTTL:      cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.PurgeWindow,
		MaxItems:        cfg.Cache.MaxSize,
	})
}
