package service

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	postgres "github.com/sellbook/sellbook/internal/repository/postgres"
	redis "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/service/auth"
	"github.com/sellbook/sellbook/internal/service/portal"
	"github.com/sellbook/sellbook/internal/service/selling"
)

type Services struct {
	Selling *selling.Service
	Portal  *portal.Service
	Auth    *auth.Service
}

type Config struct {
	Selling selling.Config
	Tokens  *auth.Tokens
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.EventsPubSub,
	limiter *redis.LoginLimiter,
	clock clockwork.Clock,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Selling: selling.New(store, cache, pubsub, clock, logger, cfg.Selling),
		Portal:  portal.New(store, pubsub, clock, logger),
		Auth:    auth.New(store, limiter, cfg.Tokens, clock, logger),
	}
}
