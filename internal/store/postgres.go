package store

import (
	"context"
	"errors"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamchat/internal/app"
)

// ErrNotFound is returned when a row the caller referenced does not exist.
var ErrNotFound = errors.New("not found")

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, cfg app.Config, log *slog.Logger) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.PGURL)
	if err != nil {
		return nil, err
	}
	pcfg.MaxConns = int32(cfg.PGMaxConn)
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }
