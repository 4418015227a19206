package app

import (
	"context"
	"errors"
	"time"

	"session-guard/internal/config"
	"session-guard/internal/db"
	"session-guard/internal/guard"
	"session-guard/internal/identity/kratos"
	"session-guard/internal/logger"
	"session-guard/internal/profile"
	"session-guard/internal/redis"
	"session-guard/internal/session"
)

type Infra struct {
	DB       *db.DB
	Redis    *redis.Client // nil unless the session provider is used
	Profiles *profile.Store
	Provider guard.Provider
	Sessions session.Store // nil unless the session provider is used
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", nil)

	infra := &Infra{
		DB:       database,
		Profiles: profile.NewStore(database),
	}

	switch cfg.AuthProvider {
	case config.ProviderKratos:
		infra.Provider = kratos.New(cfg.KratosPublicURL, cfg.KratosTimeout)
		logger.Info("using kratos identity provider", map[string]any{"url": cfg.KratosPublicURL})

	default:
		client, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		logger.Info("redis ready", nil)

		store := session.NewRedisStore(client.Client)
		infra.Redis = client
		infra.Sessions = store
		infra.Provider = session.NewProvider(store, cfg.SessionIdleTimeout)
	}

	return infra, nil
}

// Close releases connections in reverse order of acquisition.
func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	errs = append(errs, i.DB.Close())
	return errors.Join(errs...)
}

// GrantAdmin sets the admin flag for a user without starting the server.
func GrantAdmin(ctx context.Context, cfg config.Config, userID string, isAdmin bool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close()

	return profile.NewStore(database).SetAdmin(ctx, userID, isAdmin)
}
