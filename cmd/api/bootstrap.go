package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
)

// stores is the repository set the process runs on: Postgres when a DSN is
// configured, otherwise the in-memory store.
type stores struct {
	users     repository.UserRepository
	tickets   repository.TicketRepository
	comments  repository.TicketCommentRepository
	blacklist repository.TokenBlacklist
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
	redis  *persistence.Redis
	stores stores
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)

	a := &app{cfg: cfg, logger: logger, pg: pg, redis: redis}
	a.stores = a.buildStores()
	return a, nil
}

func (a *app) buildStores() stores {
	var s stores
	mem := memory.NewStore()
	if a.pg.Enabled() {
		pool := a.pg.Pool
		s.users = repository.NewUserRepository(pool)
		s.tickets = repository.NewTicketRepository(pool)
		s.comments = repository.NewTicketCommentRepository(pool)
	} else {
		s.users = mem.Users()
		s.tickets = mem.Tickets()
		s.comments = mem.Comments()
	}
	if a.redis.Enabled() {
		s.blacklist = repository.NewRedisTokenBlacklist(a.redis.Client, a.redis.Keyspace("blacklist"))
	} else {
		a.logger.Warn("redis disabled; refresh token blacklist kept in memory")
		s.blacklist = mem.Blacklist()
	}
	return s
}

func (a *app) close() {
	a.redis.Close()
	a.pg.Close()
	_ = a.logger.Sync()
}
