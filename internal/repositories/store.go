package repositories

import (
	"context"
	"fmt"
	"time"

	"walletd/internal/config"
	"walletd/internal/repositories/cache"
	"walletd/internal/services/wallet"

	"github.com/rs/zerolog"
)

// Store is a wallet.Store that can also report its connectivity.
type Store interface {
	wallet.Store
	Ping(ctx context.Context) error
}

const connectTimeout = 5 * time.Second

// OpenStore opens the store selected by cfg.StoreDriver. The returned
// func releases its connections.
func OpenStore(cfg config.Config, log zerolog.Logger) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store, balances are lost on restart")
		return NewMemoryStore(), func() {}, nil

	case config.StoreRedis:
		store := cache.NewRedisStore(cache.NewRedisClient(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  connectTimeout,
			ReadTimeout:  cfg.Wallet.PersistTimeout,
			WriteTimeout: cfg.Wallet.PersistTimeout,
		}))

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Host+":"+cfg.Redis.Port).Msg("connected to redis")

		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close redis connection")
			}
		}, nil

	case config.StorePostgres:
		db, err := OpenPostgres(DBConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Name:            cfg.Database.Name,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db); err != nil {
			_ = Close(db)
			return nil, nil, err
		}
		log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to postgres")

		return NewGormStore(db), func() {
			if err := Close(db); err != nil {
				log.Error().Err(err).Msg("failed to close database connection")
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
