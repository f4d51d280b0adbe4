package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbook/sellbook/internal/domain"
)

type StatsRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *StatsRepo) With(db DB) *StatsRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *StatsRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Totals aggregates the tickets created at or after since. A nil since
// covers every ticket.
func (r *StatsRepo) Totals(ctx context.Context, since *time.Time) (domain.Statistics, error) {
	const op = "postgres.StatsRepo.Totals"

	var s domain.Statistics
	err := r.handle().QueryRow(ctx,
		`SELECT
			COALESCE(SUM(profit_price_aed), 0),
			COUNT(*),
			COALESCE(SUM(selling_price_aed), 0),
			COALESCE(SUM(due_price_aed), 0)
		 FROM sells
		 WHERE $1::timestamptz IS NULL OR created_at >= $1`,
		since,
	).Scan(&s.TotalProfitAED, &s.TotalSelling, &s.TotalRevenue, &s.TotalDue)
	if err != nil {
		return domain.Statistics{}, wrapDBErr(op, err)
	}

	return s, nil
}
