package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Repository reads the activity_logs table. Writes go through
// shared.ActivityLogger; this side is query only.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed timeline reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	add := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, argPos))
		args = append(args, value)
		argPos++
	}
	if !filters.From.IsZero() {
		add("l.occurred_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("l.occurred_at < $%d", filters.To)
	}
	if filters.ActorID != 0 {
		add("l.actor_id = $%d", filters.ActorID)
	}
	if entity := strings.TrimSpace(filters.Entity); entity != "" {
		add("l.entity = $%d", entity)
	}
	if action := strings.TrimSpace(filters.Action); action != "" {
		add("l.action = $%d", action)
	}

	query := `SELECT l.id, l.actor_id, COALESCE(a.name, ''), l.action, l.entity, l.entity_id, l.meta, l.occurred_at
		FROM activity_logs l
		LEFT JOIN admins a ON a.id = l.actor_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY l.occurred_at DESC, l.id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.MapStorageError(err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.ID, &row.ActorID, &row.Actor, &row.Action, &row.Entity,
			&row.EntityID, &row.Meta, &row.At); err != nil {
			return nil, shared.MapStorageError(err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
