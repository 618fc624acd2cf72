package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/flight-auth/internal/domain"
)

// AdminRepository handles persistence for administrators.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	SetSuperadmin(ctx context.Context, username string, superadmin bool) error
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (username, email, full_name, phone, password_hash, is_superadmin)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		admin.Username,
		admin.Email,
		admin.FullName,
		nullIfEmpty(admin.Phone),
		admin.PasswordHash,
		admin.IsSuperadmin,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	return mapPgError(err)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	const query = `
        SELECT id, username, email, full_name, phone, password_hash, is_superadmin, created_at, updated_at
        FROM admins WHERE username=$1`

	var (
		admin domain.Admin
		phone *string
	)
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.Email,
		&admin.FullName,
		&phone,
		&admin.PasswordHash,
		&admin.IsSuperadmin,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	if phone != nil {
		admin.Phone = *phone
	}
	return &admin, nil
}

func (r *adminRepository) SetSuperadmin(ctx context.Context, username string, superadmin bool) error {
	const query = `
        UPDATE admins SET is_superadmin=$1, updated_at=NOW()
        WHERE username=$2`

	cmd, err := r.pool.Exec(ctx, query, superadmin, username)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
