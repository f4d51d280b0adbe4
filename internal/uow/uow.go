package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgres "github.com/sellbook/sellbook/internal/repository/postgres"
)

// maxAttempts bounds how often a transaction is replayed after a
// serialization failure or deadlock.
const maxAttempts = 3

// AfterCommit runs once the transaction that registered it has committed.
// Cache invalidation and change fan-out go here so they never observe a
// rolled back write.
type AfterCommit func(ctx context.Context)

// Work is one attempt at a unit of work. It may run more than once.
type Work func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error

// Runner opens transactions; *postgres.Store implements it.
type Runner interface {
	RunTx(ctx context.Context, opts *pgx.TxOptions, fn func(ctx context.Context, tx postgres.DB) error) error
}

type UoW struct {
	store Runner
}

func NewUoW(store Runner) *UoW {
	return &UoW{store: store}
}

// Do runs work in a transaction, replaying it on retryable failures, and
// then runs the hooks registered by the attempt that committed.
func (u *UoW) Do(ctx context.Context, work Work) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var hooks []AfterCommit
		err = u.store.RunTx(ctx, nil, func(ctx context.Context, tx postgres.DB) error {
			return work(ctx, tx, func(h AfterCommit) { hooks = append(hooks, h) })
		})
		if err == nil {
			for _, h := range hooks {
				h(ctx)
			}
			return nil
		}
		if !postgres.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
