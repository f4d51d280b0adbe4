package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sellbook/sellbook/internal/config"
	"github.com/sellbook/sellbook/internal/postgres"
	redisx "github.com/sellbook/sellbook/internal/redis"
	postgresrepo "github.com/sellbook/sellbook/internal/repository/postgres"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/service"
	"github.com/sellbook/sellbook/internal/service/auth"
	"github.com/sellbook/sellbook/internal/service/selling"
	"github.com/sellbook/sellbook/internal/slip"
	httpgin "github.com/sellbook/sellbook/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	services   *service.Services
	pubsub     *redisrepo.EventsPubSub
	httpServer *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
		AppName:  "sellbook",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := postgres.Migrate(ctx, pgxPool); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	rdb, err := redisx.New(ctx, redisx.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: "sellbook",
	}, logger)
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	clock := clockwork.NewRealClock()

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewEventsPubSub(rdb, clock)
	limiter := redisrepo.NewLoginLimiter(rdb, clock, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	replays := redisrepo.NewCreateReplays(rdb, 2*time.Hour, time.Minute)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, clock, logger, service.Config{
		Selling: selling.Config{
			StatisticsTTL: cfg.Cache.StatisticsTTL,
			Company: slip.Company{
				Name:     cfg.Slip.CompanyName,
				Phones:   cfg.Slip.CompanyPhones,
				Location: cfg.Slip.CompanyLocation,
				Email:    cfg.Slip.CompanyEmail,
			},
		},
		Tokens: auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock),
	})

	if err := services.Auth.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		pgxPool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	// Initialize Gin router
	router := httpgin.NewRouter(httpgin.Services{
		Selling: services.Selling,
		Portal:  services.Portal,
		Auth:    services.Auth,
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}, replays, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pgxPool,
		rdb:      rdb,
		services: services,
		pubsub:   pubsub,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.pool.Close()
	defer a.rdb.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Drop cached statistics when another instance changes a record
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, c redisrepo.Change) {
			if c.Kind != redisrepo.ChangeSell {
				return
			}
			if err := a.services.Selling.InvalidateStatistics(ctx); err != nil {
				a.logger.Warn("statistics cache invalidation failed", "id", c.ID, "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("change subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
