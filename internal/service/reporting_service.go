package service

import (
	"context"
	"encoding/json"
	"time"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statsTTL bounds staleness of cached dashboard summaries. Ledger mutations
// invalidate eagerly; the TTL is the backstop.
const statsTTL = 5 * time.Minute

// expiringSoonWindow is how far ahead the dashboard warns about expiry.
const expiringSoonWindow = 30 * 24 * time.Hour

// dashboardCacheKey is the per-user stats cache key, shared with the ledger
// service which invalidates it after every mutation.
func dashboardCacheKey(userID uuid.UUID) string {
	return "dashboard:" + userID.String()
}

// reportingService implements ports.ReportingService.
type reportingService struct {
	voucherRepo ports.VoucherRepository
	statsCache  ports.StatsCache
	log         zerolog.Logger
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	voucherRepo ports.VoucherRepository,
	statsCache ports.StatsCache,
	log zerolog.Logger,
) ports.ReportingService {
	return &reportingService{
		voucherRepo: voucherRepo,
		statsCache:  statsCache,
		log:         log,
	}
}

// GetDashboardStats returns aggregated voucher statistics for the user,
// served from cache when fresh.
func (s *reportingService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*ports.DashboardStats, error) {
	key := dashboardCacheKey(userID)

	cached, err := s.statsCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("stats cache read failed, recomputing")
	}
	if cached != nil {
		stats := &ports.DashboardStats{}
		if err := json.Unmarshal(cached, stats); err == nil {
			return stats, nil
		}
		s.log.Warn().Str("user_id", userID.String()).Msg("corrupt cached stats, recomputing")
	}

	vouchers, err := s.voucherRepo.ListByUser(ctx, ports.VoucherListParams{UserID: userID})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	soon := now.Add(expiringSoonWindow)
	stats := &ports.DashboardStats{}
	for i := range vouchers {
		v := &vouchers[i]
		stats.TotalVouchers++

		switch v.State(now) {
		case domain.VoucherStateUnused:
			stats.Unused++
		case domain.VoucherStatePartiallyUsed:
			stats.PartiallyUsed++
		case domain.VoucherStateFullyUsed:
			stats.FullyUsed++
		case domain.VoucherStateExpired:
			stats.Expired++
		}

		if !v.IsExpired(now) {
			stats.RemainingBalance += v.Balance
			if v.ExpiryDate.Before(soon) {
				stats.ExpiringSoon++
			}
		}
		if v.OfferForSale {
			stats.ForSale++
		}
	}

	payload, err := json.Marshal(stats)
	if err == nil {
		if err := s.statsCache.Set(ctx, key, payload, statsTTL); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("stats cache write failed")
		}
	}

	return stats, nil
}
