package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Repository provides persistence for admin accounts.
type Repository interface {
	Get(ctx context.Context, id int64) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Create(ctx context.Context, admin Admin) (int64, error)
	UpdateRole(ctx context.Context, id int64, role rbac.Role) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const adminColumns = `id, email, name, role, status, password_hash, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	return scanAdmin(row)
}

func (r *repository) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var admins []Admin
	for rows.Next() {
		var a Admin
		var role, status string
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &role, &status, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Role = rbac.Role(role)
		a.Status = Status(status)
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *repository) Create(ctx context.Context, admin Admin) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO admins (email, name, role, status, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		admin.Email, admin.Name, string(admin.Role), string(admin.Status), admin.PasswordHash).Scan(&id)
	if err != nil {
		return 0, shared.MapStorageError(err)
	}
	return id, nil
}

func (r *repository) UpdateRole(ctx context.Context, id int64, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return shared.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return shared.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return shared.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	var role, status string
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &status, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.Role = rbac.Role(role)
	a.Status = Status(status)
	return &a, nil
}
