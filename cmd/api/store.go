package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/config"
	natsclient "github.com/capitalize-ai/curator-chat/internal/nats"
	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/internal/store/firestore"
	"github.com/capitalize-ai/curator-chat/internal/store/postgres"
	"github.com/capitalize-ai/curator-chat/internal/store/redis"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

// openStore selects the session store once at startup. When the configured
// backend cannot be opened and fallback is enabled, sessions live in memory
// for the lifetime of the process.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	s, err := openBackend(ctx, cfg, log)
	if err != nil {
		if !cfg.StorageFallback || cfg.StorageBackend == config.StorageMemory {
			return nil, err
		}
		log.Warn("session store unavailable, falling back to in-memory storage",
			zap.String("backend", cfg.StorageBackend),
			zap.Error(err),
		)
		s = store.NewMemoryStore()
	}

	log.Info("session store ready", zap.String("backend", s.Name()))
	return store.Instrument(s), nil
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return store.NewMemoryStore(), nil

	case config.StoragePostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)

	case config.StorageFirestore:
		return firestore.Open(ctx, firestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			Collection:      cfg.FirestoreCollection,
		})

	case config.StorageRedis:
		return redis.Open(ctx, redis.Config{
			Addr:      cfg.RedisAddr,
			Username:  cfg.RedisUsername,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})

	case config.StorageNATS:
		nc, err := natsclient.Dial(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return nil, err
		}
		s, err := natsclient.NewSessionStore(ctx, nc, cfg.NATSKVBucket)
		if err != nil {
			nc.Close()
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
