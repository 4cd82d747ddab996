package service

import (
	"context"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultActivityLimit = 50

// ActivityServiceImpl implements ports.ActivityService.
type ActivityServiceImpl struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService creates a new ActivityServiceImpl.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) *ActivityServiceImpl {
	return &ActivityServiceImpl{repo: repo, log: log}
}

// Record appends an entry to the activity feed. Failures are logged and
// swallowed: the feed must never fail the mutation it describes.
func (s *ActivityServiceImpl) Record(ctx context.Context, e *domain.ActivityEntry) {
	if err := s.repo.Create(ctx, e); err != nil {
		s.log.Warn().
			Err(err).
			Str("user_id", e.UserID.String()).
			Str("action", string(e.Action)).
			Msg("failed to record activity entry")
	}
}

// List returns the user's most recent activity entries.
func (s *ActivityServiceImpl) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 || limit > defaultActivityLimit {
		limit = defaultActivityLimit
	}

	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return entries, nil
}
