package redisx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// ClientName is sent with CLIENT SETNAME on every connection.
	ClientName string
}

// New connects and pings. Command timeouts are kept short: redis only
// serves caches, replays and login counters here, and every caller can
// fall back or fail fast.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*redis.Client, error) {
	const op = "redisx.New"

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ClientName:   cfg.ClientName,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := client.Ping(ctxPing).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)

	return client, nil
}
