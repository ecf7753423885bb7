package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/db"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Repository provides persistence for articles, their approval records and
// review history.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error)
	InsertArticle(ctx context.Context, article Article) error
	UpdateArticle(ctx context.Context, article Article) error
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	GetApproval(ctx context.Context, articleID uuid.UUID) (*ApprovalRecord, error)
	UpsertApproval(ctx context.Context, rec ApprovalRecord) error
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	ListHistory(ctx context.Context, articleID uuid.UUID) ([]HistoryEntry, error)
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

const articleColumns = `id, author_id, primary_category_id, title, slug, summary, body, status, published_at, created_at, updated_at`

func (r *repository) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	row := r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *repository) ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", argPos))
		args = append(args, *req.AuthorID)
		argPos++
	}
	if req.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("primary_category_id = $%d", argPos))
		args = append(args, *req.CategoryID)
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM articles %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM articles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		articleColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) InsertArticle(ctx context.Context, article Article) error {
	_, err := r.db.Exec(ctx, `INSERT INTO articles
(id, author_id, primary_category_id, title, slug, summary, body, status, published_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		article.ID, article.AuthorID, article.PrimaryCategoryID, article.Title, article.Slug,
		article.Summary, article.Body, string(article.Status), article.PublishedAt)
	return shared.MapStorageError(err)
}

func (r *repository) UpdateArticle(ctx context.Context, article Article) error {
	tag, err := r.db.Exec(ctx, `UPDATE articles SET
primary_category_id = $2, title = $3, slug = $4, summary = $5, body = $6,
status = $7, published_at = $8, updated_at = NOW()
WHERE id = $1`,
		article.ID, article.PrimaryCategoryID, article.Title, article.Slug, article.Summary,
		article.Body, string(article.Status), article.PublishedAt)
	if err != nil {
		return shared.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return shared.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetApproval(ctx context.Context, articleID uuid.UUID) (*ApprovalRecord, error) {
	var rec ApprovalRecord
	var status string
	err := r.db.QueryRow(ctx, `SELECT article_id, workflow_status, requires_approval, submitted_by, submitted_at,
approved_by, approved_at, rejected_by, rejected_at, rejection_reason
FROM article_approvals WHERE article_id = $1`, articleID).Scan(
		&rec.ArticleID, &status, &rec.RequiresApproval, &rec.SubmittedBy, &rec.SubmittedAt,
		&rec.ApprovedBy, &rec.ApprovedAt, &rec.RejectedBy, &rec.RejectedAt, &rec.RejectionReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rec.WorkflowStatus = WorkflowStatus(status)
	return &rec, nil
}

// UpsertApproval creates or replaces the workflow record keyed by
// article_id. Guarded by the table's primary key so a re-submission never
// races into two rows.
func (r *repository) UpsertApproval(ctx context.Context, rec ApprovalRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO article_approvals
(article_id, workflow_status, requires_approval, submitted_by, submitted_at,
 approved_by, approved_at, rejected_by, rejected_at, rejection_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (article_id) DO UPDATE SET
 workflow_status = EXCLUDED.workflow_status,
 requires_approval = EXCLUDED.requires_approval,
 submitted_by = EXCLUDED.submitted_by,
 submitted_at = EXCLUDED.submitted_at,
 approved_by = EXCLUDED.approved_by,
 approved_at = EXCLUDED.approved_at,
 rejected_by = EXCLUDED.rejected_by,
 rejected_at = EXCLUDED.rejected_at,
 rejection_reason = EXCLUDED.rejection_reason`,
		rec.ArticleID, string(rec.WorkflowStatus), rec.RequiresApproval, rec.SubmittedBy, rec.SubmittedAt,
		rec.ApprovedBy, rec.ApprovedAt, rec.RejectedBy, rec.RejectedAt, rec.RejectionReason)
	return shared.MapStorageError(err)
}

func (r *repository) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO article_approval_history
(article_id, reviewer_id, action, previous_status, new_status, comments, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ArticleID, entry.ReviewerID, string(entry.Action),
		string(entry.PreviousStatus), string(entry.NewStatus), entry.Comments, entry.CreatedAt)
	return shared.MapStorageError(err)
}

func (r *repository) ListHistory(ctx context.Context, articleID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, article_id, reviewer_id, action, previous_status, new_status, comments, created_at
FROM article_approval_history WHERE article_id = $1 ORDER BY created_at ASC, id ASC`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var action, prev, next string
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.ReviewerID, &action, &prev, &next, &e.Comments, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = ReviewAction(action)
		e.PreviousStatus = WorkflowStatus(prev)
		e.NewStatus = WorkflowStatus(next)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	var status string
	if err := row.Scan(&a.ID, &a.AuthorID, &a.PrimaryCategoryID, &a.Title, &a.Slug, &a.Summary,
		&a.Body, &status, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}
