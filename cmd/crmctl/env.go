package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"realty-crm/internal/config"
	"realty-crm/pkg/logger"
	"realty-crm/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// env holds the connections a command opened. Close releases them.
type env struct {
	cfg config.Config
	log *slog.Logger
	db  *sql.DB
	rdb *redis.Client
}

func loadEnv(ctx context.Context, needDB, needRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger.New(cfg.App.Env)}

	if needDB {
		e.db, err = utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
	}
	if needRedis {
		e.rdb, err = utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
	}
	return e, nil
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
}
