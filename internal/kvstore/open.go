package kvstore

import (
	"context"
	"fmt"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/database"
)

// Open builds a Store for the configured backend. It never touches the
// backend itself; the connection is made lazily on first use. An error is
// returned only for configuration that can never work, such as a broken
// store secret.
func Open(cfg *config.Config) (*Store, error) {
	opts := []Option{WithInitTimeout(cfg.Store.InitTimeout)}

	if cfg.Store.Secret != "" {
		codec, err := NewSealedCodec(cfg.Store.Secret)
		if err != nil {
			return nil, fmt.Errorf("building store codec: %w", err)
		}
		opts = append(opts, WithCodec(codec))
	}

	return New(OpenerFor(cfg), opts...), nil
}

// OpenerFor returns the opener for cfg.Store.Backend.
func OpenerFor(cfg *config.Config) Opener {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return func(context.Context) (Backend, error) {
			return NewMemoryBackend(), nil
		}

	case config.BackendRedis:
		return func(ctx context.Context) (Backend, error) {
			client, err := database.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return nil, err
			}
			return NewRedisBackend(client, cfg.Store.Namespace, true), nil
		}

	case config.BackendMySQL:
		return func(ctx context.Context) (Backend, error) {
			db, err := database.NewMariaDB(ctx, cfg.Database)
			if err != nil {
				return nil, err
			}
			if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
				db.Close()
				return nil, err
			}
			return NewSQLBackend(db, DialectMySQL, true), nil
		}

	default:
		return func(ctx context.Context) (Backend, error) {
			db, err := database.NewSQLite(ctx, cfg.Store.Path)
			if err != nil {
				return nil, err
			}
			return NewSQLBackend(db, DialectSQLite, true), nil
		}
	}
}
