package main

import (
	"context"
	"fmt"
	"time"

	"barberbot/internal/config"
	"barberbot/internal/session"
)

// Las conversaciones en redis expiran si no hay actividad
const redisSessionTTL = 30 * 24 * time.Hour

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreSQLite:
		return session.NewSQLiteStore(cfg.SessionDBPath)
	case config.StoreRedis:
		return session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisSessionTTL)
	default:
		return nil, fmt.Errorf("SESSION_STORE desconocido: %q", cfg.SessionStore)
	}
}
