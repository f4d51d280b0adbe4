package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is satisfied by both the pool and a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store hands out repositories bound to the pool. A repository moves into
// a transaction opened by RunTx through its With method.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ticket and portal writes touch single rows, so read committed is enough.
var defaultTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// RunTx runs fn in a transaction that commits when fn returns nil and rolls
// back otherwise. A nil opts uses read committed.
func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	const op = "postgres.Store.RunTx"

	txOpts := defaultTxOptions
	if opts != nil {
		txOpts = *opts
	}

	err := pgx.BeginTxFunc(ctx, s.pool, txOpts, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping reports whether the database answers; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	const op = "postgres.Store.Ping"

	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Tickets() *TicketRepo { return &TicketRepo{pool: s.pool} }
func (s *Store) Portals() *PortalRepo { return &PortalRepo{pool: s.pool} }
func (s *Store) Users() *UserRepo     { return &UserRepo{pool: s.pool} }
func (s *Store) Stats() *StatsRepo    { return &StatsRepo{pool: s.pool} }
