package postgres

import (
	"context"
	"fmt"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
)

// ActivityRepo implements ports.ActivityRepository.
type ActivityRepo struct {
	pool Pool
}

// NewActivityRepo creates a new ActivityRepo.
func NewActivityRepo(pool Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Create appends an entry to the activity log.
func (r *ActivityRepo) Create(ctx context.Context, e *domain.ActivityEntry) error {
	query := `INSERT INTO activity_log (id, user_id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.UserID, e.Action, e.EntityType, e.EntityID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// ListByUser fetches a user's most recent activity entries.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityEntry, error) {
	query := `SELECT id, user_id, action, entity_type, entity_id, detail, created_at
		FROM activity_log WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		e := domain.ActivityEntry{}
		err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}
	return entries, nil
}
