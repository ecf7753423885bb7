package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/db"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Repository provides persistence for promotion grants.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ArticleExists(ctx context.Context, articleID uuid.UUID) (bool, error)
	// LockArticle takes the article's row lock until the surrounding
	// transaction ends. The deactivate-then-insert pair alone is not
	// race-safe when no active grant exists yet (the UPDATE touches zero
	// rows, so concurrent transactions never conflict); serializing grant
	// writers on the article row closes that window.
	LockArticle(ctx context.Context, articleID uuid.UUID) error
	Insert(ctx context.Context, grant Grant) error
	// DeactivateActive soft-removes the currently active grant for the
	// (article, kind) pair and returns how many rows it touched.
	DeactivateActive(ctx context.Context, articleID uuid.UUID, kind Kind, now time.Time) (int64, error)
	ActiveByArticle(ctx context.Context, articleID uuid.UUID, now time.Time) ([]Grant, error)
	ListActive(ctx context.Context, kind Kind, now time.Time) ([]Grant, error)
	// SweepExpired flags expired grants of the kind and returns the
	// articles whose projection changed.
	SweepExpired(ctx context.Context, kind Kind, now time.Time) ([]uuid.UUID, error)
	PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) ArticleExists(ctx context.Context, articleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM articles WHERE id = $1)`, articleID).Scan(&exists)
	return exists, err
}

func (r *repository) LockArticle(ctx context.Context, articleID uuid.UUID) error {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM articles WHERE id = $1 FOR UPDATE`, articleID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: article %s", shared.ErrNotFound, articleID)
	}
	return err
}

const grantColumns = `id, article_id, kind, tier, position, starts_at, ends_at, manually_removed, granted_by, created_at`

func (r *repository) Insert(ctx context.Context, grant Grant) error {
	_, err := r.db.Exec(ctx, `INSERT INTO promotion_grants
(id, article_id, kind, tier, position, starts_at, ends_at, manually_removed, granted_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, NOW())`,
		grant.ID, grant.ArticleID, string(grant.Kind), grant.Tier, grant.Position,
		grant.StartsAt, grant.EndsAt, grant.GrantedBy)
	return shared.MapStorageError(err)
}

func (r *repository) DeactivateActive(ctx context.Context, articleID uuid.UUID, kind Kind, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE promotion_grants SET manually_removed = true
WHERE article_id = $1 AND kind = $2 AND manually_removed = false
AND (ends_at IS NULL OR ends_at > $3)`,
		articleID, string(kind), now)
	if err != nil {
		return 0, shared.MapStorageError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) ActiveByArticle(ctx context.Context, articleID uuid.UUID, now time.Time) ([]Grant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+grantColumns+` FROM promotion_grants
WHERE article_id = $1 AND manually_removed = false AND (ends_at IS NULL OR ends_at > $2)`,
		articleID, now)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

func (r *repository) ListActive(ctx context.Context, kind Kind, now time.Time) ([]Grant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+grantColumns+` FROM promotion_grants
WHERE kind = $1 AND manually_removed = false AND (ends_at IS NULL OR ends_at > $2)
ORDER BY `+orderClause(kind), string(kind), now)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// orderClause returns the kind-specific display ordering. Featured and
// pinned rank by tier with the soonest-expiring grant last; breaking ranks
// by priority then recency; editor picks list newest first.
func orderClause(kind Kind) string {
	switch kind {
	case KindFeatured, KindPinned:
		return `CASE tier WHEN 'gold' THEN 1 WHEN 'silver' THEN 2 WHEN 'bronze' THEN 3 ELSE 4 END,
ends_at DESC NULLS FIRST`
	case KindBreaking:
		return `CASE tier WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 ELSE 5 END,
created_at DESC`
	}
	return `created_at DESC`
}

func (r *repository) SweepExpired(ctx context.Context, kind Kind, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `UPDATE promotion_grants SET manually_removed = true
WHERE kind = $1 AND ends_at IS NOT NULL AND ends_at <= $2 AND manually_removed = false
RETURNING article_id`,
		string(kind), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var swept []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		swept = append(swept, id)
	}
	return swept, rows.Err()
}

func (r *repository) PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM promotion_grants
WHERE (manually_removed = true OR ends_at <= $1)
AND COALESCE(ends_at, created_at) <= $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectGrants(rows pgx.Rows) ([]Grant, error) {
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		var kind string
		if err := rows.Scan(&g.ID, &g.ArticleID, &kind, &g.Tier, &g.Position, &g.StartsAt,
			&g.EndsAt, &g.ManuallyRemoved, &g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Kind = Kind(kind)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}
