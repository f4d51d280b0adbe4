package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/repository"
)

type PortalRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PortalRepo) With(db DB) *PortalRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PortalRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *PortalRepo) Get(ctx context.Context, id string) (domain.Portal, error) {
	const op = "postgres.PortalRepo.Get"

	var p domain.Portal
	err := r.handle().QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM portals WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Portal{}, wrapDBErr(op, err)
	}

	return p, nil
}

func (r *PortalRepo) List(ctx context.Context, q domain.PortalQuery) ([]domain.Portal, int, error) {
	const op = "postgres.PortalRepo.List"

	db := r.handle()

	sql, args := portalListSQL(q)
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Portal, 0, q.Limit)
	total := 0
	for rows.Next() {
		var p domain.Portal
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	if len(out) == 0 && q.Page > 1 {
		sql, args := portalCountSQL(q)
		if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
	}

	return out, total, nil
}

func (r *PortalRepo) Create(ctx context.Context, p domain.Portal) error {
	const op = "postgres.PortalRepo.Create"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO portals (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Rename sets the name of the portal with p.ID and returns the stored row.
func (r *PortalRepo) Rename(ctx context.Context, p domain.Portal) (domain.Portal, error) {
	const op = "postgres.PortalRepo.Rename"

	var out domain.Portal
	err := r.handle().QueryRow(ctx,
		`UPDATE portals SET name = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING id, name, created_at, updated_at`,
		p.ID, p.Name, p.UpdatedAt,
	).Scan(&out.ID, &out.Name, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.Portal{}, wrapDBErr(op, err)
	}

	return out, nil
}

// Delete removes the portal with id.
//
// Returns:
//   - error: repository.ErrNotFound if no portal has the id.
//   - error: repository.ErrReferenced if tickets still belong to it.
func (r *PortalRepo) Delete(ctx context.Context, id string) error {
	const op = "postgres.PortalRepo.Delete"

	tag, err := r.handle().Exec(ctx, `DELETE FROM portals WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
