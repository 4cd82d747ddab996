package service

import (
	"context"
	"fmt"
	"time"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VoucherServiceImpl implements ports.VoucherService.
type VoucherServiceImpl struct {
	voucherRepo  ports.VoucherRepository
	categoryRepo ports.CategoryRepository
	statsCache   ports.StatsCache
	activitySvc  ports.ActivityService
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewVoucherService creates a new VoucherServiceImpl.
func NewVoucherService(
	voucherRepo ports.VoucherRepository,
	categoryRepo ports.CategoryRepository,
	statsCache ports.StatsCache,
	activitySvc ports.ActivityService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *VoucherServiceImpl {
	return &VoucherServiceImpl{
		voucherRepo:  voucherRepo,
		categoryRepo: categoryRepo,
		statsCache:   statsCache,
		activitySvc:  activitySvc,
		transactor:   transactor,
		log:          log,
	}
}

// CreateVoucher creates a voucher with its balance equal to the face value.
func (s *VoucherServiceImpl) CreateVoucher(ctx context.Context, req ports.CreateVoucherRequest) (*domain.Voucher, error) {
	if req.OriginalBalance <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Name == "" {
		return nil, apperror.Validation("voucher name is required")
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	voucher := &domain.Voucher{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Name:            req.Name,
		Notes:           req.Notes,
		CategoryID:      req.CategoryID,
		OriginalBalance: req.OriginalBalance,
		Balance:         req.OriginalBalance,
		ExpiryDate:      domain.DateOnly(req.ExpiryDate),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.voucherRepo.Create(ctx, voucher); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create voucher: %w", err))
	}

	s.invalidateStats(ctx, req.UserID)
	s.activitySvc.Record(ctx, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     req.UserID,
		Action:     domain.ActivityVoucherCreated,
		EntityType: "voucher",
		EntityID:   voucher.ID,
		Detail:     fmt.Sprintf("created %q worth %s", voucher.Name, money.Format(voucher.OriginalBalance)),
		CreatedAt:  now,
	})

	s.log.Info().
		Str("voucher_id", voucher.ID.String()).
		Int64("original_balance", voucher.OriginalBalance).
		Msg("voucher created")

	return voucher, nil
}

// GetVoucher fetches a single voucher, enforcing ownership.
func (s *VoucherServiceImpl) GetVoucher(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get voucher: %w", err))
	}
	if voucher == nil || voucher.UserID != userID {
		return nil, apperror.ErrNotFound("voucher")
	}
	return voucher, nil
}

// ListVouchers returns the user's vouchers with optional filters.
func (s *VoucherServiceImpl) ListVouchers(ctx context.Context, params ports.VoucherListParams) ([]domain.Voucher, error) {
	vouchers, err := s.voucherRepo.ListByUser(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list vouchers: %w", err))
	}
	return vouchers, nil
}

// UpdateVoucher applies the edit form. Nil fields stay unchanged. A non-nil
// Balance is the administrative overwrite: the stored balance is replaced
// without touching the ledger.
func (s *VoucherServiceImpl) UpdateVoucher(ctx context.Context, req ports.UpdateVoucherRequest) (*domain.Voucher, error) {
	voucher, err := s.GetVoucher(ctx, req.UserID, req.VoucherID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperror.Validation("voucher name is required")
		}
		voucher.Name = *req.Name
	}
	if req.Notes != nil {
		voucher.Notes = *req.Notes
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.UserID, *req.CategoryID); err != nil {
			return nil, err
		}
		voucher.CategoryID = req.CategoryID
	}
	if req.ExpiryDate != nil {
		voucher.ExpiryDate = domain.DateOnly(*req.ExpiryDate)
	}
	if req.IsActive != nil {
		voucher.IsActive = *req.IsActive
	}

	// The administrative overwrite runs first, under the voucher row lock.
	// Writing the balance through UpdateDetails would silently undo any spend
	// that committed between our read above and the write below.
	if req.Balance != nil {
		if err := s.overwriteBalance(ctx, req.UserID, req.VoucherID, *req.Balance); err != nil {
			return nil, err
		}
		voucher.Balance = *req.Balance
	}

	if err := s.voucherRepo.UpdateDetails(ctx, voucher); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update voucher: %w", err))
	}

	s.invalidateStats(ctx, req.UserID)
	s.activitySvc.Record(ctx, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     req.UserID,
		Action:     domain.ActivityVoucherUpdated,
		EntityType: "voucher",
		EntityID:   voucher.ID,
		Detail:     fmt.Sprintf("updated %q", voucher.Name),
		CreatedAt:  time.Now().UTC(),
	})

	return voucher, nil
}

// CreateCategory creates a user-scoped category.
func (s *VoucherServiceImpl) CreateCategory(ctx context.Context, userID uuid.UUID, name string) (*domain.Category, error) {
	if name == "" {
		return nil, apperror.Validation("category name is required")
	}

	category := &domain.Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create category: %w", err))
	}
	return category, nil
}

// ListCategories returns the user's categories.
func (s *VoucherServiceImpl) ListCategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list categories: %w", err))
	}
	return categories, nil
}

// DeleteCategory removes a category; its vouchers become uncategorized.
func (s *VoucherServiceImpl) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	if err := s.checkCategory(ctx, userID, categoryID); err != nil {
		return err
	}

	affected, err := s.categoryRepo.Delete(ctx, categoryID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete category: %w", err))
	}
	if affected == 0 {
		return apperror.ErrNotFound("category")
	}
	return nil
}

// overwriteBalance replaces the stored balance under the same row lock the
// ledger mutations take, so a concurrent purchase is either fully before or
// fully after the overwrite, never erased by it.
func (s *VoucherServiceImpl) overwriteBalance(ctx context.Context, userID, voucherID uuid.UUID, balance int64) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin transaction: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	voucher, err := s.voucherRepo.GetByIDForUpdate(ctx, dbTx, voucherID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock voucher: %w", err))
	}
	if voucher == nil || voucher.UserID != userID {
		return apperror.ErrNotFound("voucher")
	}
	if balance < 0 || balance > voucher.OriginalBalance {
		return apperror.ErrBalanceOutOfRange()
	}

	if err := s.voucherRepo.UpdateBalance(ctx, dbTx, voucherID, balance); err != nil {
		return apperror.InternalError(fmt.Errorf("overwrite balance: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit transaction: %w", err))
	}

	s.log.Info().
		Str("voucher_id", voucherID.String()).
		Int64("balance", balance).
		Msg("voucher balance overwritten")

	return nil
}

// checkCategory verifies the category exists and belongs to the user.
func (s *VoucherServiceImpl) checkCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get category: %w", err))
	}
	if category == nil || category.UserID != userID {
		return apperror.ErrNotFound("category")
	}
	return nil
}

func (s *VoucherServiceImpl) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if err := s.statsCache.Invalidate(ctx, dashboardCacheKey(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate stats cache")
	}
}
