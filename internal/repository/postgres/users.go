package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbook/sellbook/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const op = "postgres.UserRepo.GetByEmail"

	var u domain.User
	err := r.handle().QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return domain.User{}, wrapDBErr(op, err)
	}

	return u, nil
}

// Upsert creates the user or replaces the password hash and role of the
// user with the same email.
func (r *UserRepo) Upsert(ctx context.Context, u domain.User) error {
	const op = "postgres.UserRepo.Upsert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
