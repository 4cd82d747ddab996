package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// Every mutation follows the same shape: begin a database transaction, lock
// the voucher row, apply the change, recompute the balance from the full
// entry set and commit. The recomputation (balance = original_balance +
// sum(amounts)) is what keeps the stored balance consistent no matter which
// entry was touched.
type LedgerServiceImpl struct {
	voucherRepo ports.VoucherRepository
	txRepo      ports.TransactionRepository
	statsCache  ports.StatsCache
	encSvc      ports.EncryptionService
	activitySvc ports.ActivityService
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	voucherRepo ports.VoucherRepository,
	txRepo ports.TransactionRepository,
	statsCache ports.StatsCache,
	encSvc ports.EncryptionService,
	activitySvc ports.ActivityService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		voucherRepo: voucherRepo,
		txRepo:      txRepo,
		statsCache:  statsCache,
		encSvc:      encSvc,
		activitySvc: activitySvc,
		transactor:  transactor,
		log:         log,
	}
}

// RecordPurchase appends a spend entry to a voucher's ledger with pessimistic locking.
func (s *LedgerServiceImpl) RecordPurchase(ctx context.Context, req ports.RecordPurchaseRequest) (*domain.Voucher, *domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	voucher, err := s.lockVoucher(ctx, dbTx, req.UserID, req.VoucherID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if !voucher.IsActive {
		return nil, nil, apperror.ErrVoucherInactive()
	}
	if voucher.IsExpired(now) {
		return nil, nil, apperror.ErrVoucherExpired()
	}
	if req.Amount > voucher.Balance {
		return nil, nil, apperror.ErrInsufficientBalance()
	}

	txn := &domain.Transaction{
		ID:              uuid.New(),
		VoucherID:       voucher.ID,
		Amount:          -req.Amount,
		PreviousBalance: voucher.Balance,
		NewBalance:      voucher.Balance - req.Amount,
		Description:     req.Description,
		PurchaseDate:    req.PurchaseDate,
		CreatedAt:       now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := s.recomputeBalance(ctx, dbTx, voucher); err != nil {
		return nil, nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.afterMutation(ctx, voucher.UserID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     voucher.UserID,
		Action:     domain.ActivityPurchaseRecorded,
		EntityType: "transaction",
		EntityID:   txn.ID,
		Detail:     fmt.Sprintf("spent %s on %q", money.Format(req.Amount), voucher.Name),
		CreatedAt:  now,
	})

	s.log.Info().
		Str("voucher_id", voucher.ID.String()).
		Str("tx_id", txn.ID.String()).
		Int64("amount", txn.Amount).
		Int64("balance", voucher.Balance).
		Msg("purchase recorded")

	return voucher, txn, nil
}

// EditTransaction rewrites an existing entry and recomputes the voucher balance.
func (s *LedgerServiceImpl) EditTransaction(ctx context.Context, req ports.EditTransactionRequest) (*domain.Voucher, *domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, nil, apperror.ErrInvalidAmount()
	}

	txn, err := s.txRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, nil, apperror.ErrNotFound("transaction")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	voucher, err := s.lockVoucher(ctx, dbTx, req.UserID, txn.VoucherID)
	if err != nil {
		return nil, nil, err
	}

	// The edited row keeps its original starting snapshot; only its own
	// amount and resulting balance change. Snapshots on other rows are
	// historical record, not state.
	txn.Amount = -req.Amount
	txn.NewBalance = txn.PreviousBalance - req.Amount
	txn.Description = req.Description
	txn.PurchaseDate = req.PurchaseDate

	if err := s.txRepo.Update(ctx, dbTx, txn); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
	}

	if err := s.recomputeBalance(ctx, dbTx, voucher); err != nil {
		return nil, nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.afterMutation(ctx, voucher.UserID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     voucher.UserID,
		Action:     domain.ActivityTransactionEdited,
		EntityType: "transaction",
		EntityID:   txn.ID,
		Detail:     fmt.Sprintf("edited entry on %q to %s", voucher.Name, money.Format(req.Amount)),
		CreatedAt:  time.Now().UTC(),
	})

	s.log.Info().
		Str("voucher_id", voucher.ID.String()).
		Str("tx_id", txn.ID.String()).
		Int64("amount", txn.Amount).
		Int64("balance", voucher.Balance).
		Msg("transaction edited")

	return voucher, txn, nil
}

// DeleteTransaction removes an entry and recomputes the voucher balance.
// Deletes are always admissible: removing a spend can only move the balance
// back toward the original amount.
func (s *LedgerServiceImpl) DeleteTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Voucher, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	voucher, err := s.lockVoucher(ctx, dbTx, userID, txn.VoucherID)
	if err != nil {
		return nil, err
	}

	affected, err := s.txRepo.Delete(ctx, dbTx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delete transaction: %w", err))
	}
	if affected == 0 {
		return nil, apperror.ErrNotFound("transaction")
	}

	if err := s.recomputeBalance(ctx, dbTx, voucher); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.afterMutation(ctx, voucher.UserID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     voucher.UserID,
		Action:     domain.ActivityTransactionDeleted,
		EntityType: "transaction",
		EntityID:   transactionID,
		Detail:     fmt.Sprintf("deleted entry on %q", voucher.Name),
		CreatedAt:  time.Now().UTC(),
	})

	s.log.Info().
		Str("voucher_id", voucher.ID.String()).
		Str("tx_id", transactionID.String()).
		Int64("balance", voucher.Balance).
		Msg("transaction deleted")

	return voucher, nil
}

// DeleteVoucher removes a voucher and its full ledger in one transaction.
func (s *LedgerServiceImpl) DeleteVoucher(ctx context.Context, userID, voucherID uuid.UUID) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	voucher, err := s.lockVoucher(ctx, dbTx, userID, voucherID)
	if err != nil {
		return err
	}

	if _, err := s.txRepo.DeleteByVoucher(ctx, dbTx, voucherID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete voucher transactions: %w", err))
	}

	affected, err := s.voucherRepo.Delete(ctx, dbTx, voucherID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete voucher: %w", err))
	}
	if affected == 0 {
		return apperror.ErrNotFound("voucher")
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.afterMutation(ctx, userID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     domain.ActivityVoucherDeleted,
		EntityType: "voucher",
		EntityID:   voucherID,
		Detail:     fmt.Sprintf("deleted voucher %q", voucher.Name),
		CreatedAt:  time.Now().UTC(),
	})

	s.log.Info().
		Str("voucher_id", voucherID.String()).
		Msg("voucher deleted")

	return nil
}

// OfferForSale lists a voucher for sale with an asking price and encrypted
// contact details.
func (s *LedgerServiceImpl) OfferForSale(ctx context.Context, req ports.OfferForSaleRequest) (*domain.Voucher, error) {
	if !req.Contact.HasChannel() {
		return nil, apperror.ErrContactRequired()
	}

	voucher, err := s.getOwnedVoucher(ctx, req.UserID, req.VoucherID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !voucher.IsActive {
		return nil, apperror.ErrVoucherInactive()
	}
	if voucher.IsExpired(now) {
		return nil, apperror.ErrVoucherExpired()
	}
	// A listing must undercut the remaining balance; selling at face value or
	// above is rejected.
	if req.SalePrice <= 0 || req.SalePrice >= voucher.Balance {
		return nil, apperror.ErrInvalidSalePrice(money.Format(voucher.Balance))
	}

	contactJSON, err := json.Marshal(req.Contact)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal contact info: %w", err))
	}
	contactEnc, err := s.encSvc.Encrypt(string(contactJSON))
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt contact info: %w", err))
	}

	if err := s.voucherRepo.UpdateSaleListing(ctx, voucher.ID, true, &req.SalePrice, &contactEnc); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update sale listing: %w", err))
	}

	voucher.OfferForSale = true
	voucher.SalePrice = &req.SalePrice
	voucher.ContactInfoEnc = &contactEnc

	s.afterMutation(ctx, voucher.UserID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     voucher.UserID,
		Action:     domain.ActivitySaleListed,
		EntityType: "voucher",
		EntityID:   voucher.ID,
		Detail:     fmt.Sprintf("listed %q for %s", voucher.Name, money.Format(req.SalePrice)),
		CreatedAt:  now,
	})

	s.log.Info().
		Str("voucher_id", voucher.ID.String()).
		Int64("sale_price", req.SalePrice).
		Msg("voucher listed for sale")

	return voucher, nil
}

// WithdrawFromSale removes a voucher's sale listing and clears its sale fields.
func (s *LedgerServiceImpl) WithdrawFromSale(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error) {
	voucher, err := s.getOwnedVoucher(ctx, userID, voucherID)
	if err != nil {
		return nil, err
	}

	if err := s.voucherRepo.UpdateSaleListing(ctx, voucherID, false, nil, nil); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("withdraw sale listing: %w", err))
	}

	voucher.OfferForSale = false
	voucher.SalePrice = nil
	voucher.ContactInfoEnc = nil

	s.afterMutation(ctx, userID, &domain.ActivityEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     domain.ActivitySaleWithdrawn,
		EntityType: "voucher",
		EntityID:   voucherID,
		Detail:     fmt.Sprintf("withdrew %q from sale", voucher.Name),
		CreatedAt:  time.Now().UTC(),
	})

	s.log.Info().
		Str("voucher_id", voucherID.String()).
		Msg("voucher withdrawn from sale")

	return voucher, nil
}

// ListTransactions returns a voucher's ledger entries most-recent-first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, userID, voucherID uuid.UUID) ([]domain.Transaction, error) {
	if _, err := s.getOwnedVoucher(ctx, userID, voucherID); err != nil {
		return nil, err
	}

	txns, err := s.txRepo.ListByVoucher(ctx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// recomputeBalance derives the balance from the full entry set inside the
// open transaction and persists it, updating the in-memory voucher too.
func (s *LedgerServiceImpl) recomputeBalance(ctx context.Context, dbTx pgx.Tx, voucher *domain.Voucher) error {
	sum, err := s.txRepo.SumAmounts(ctx, dbTx, voucher.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("sum transaction amounts: %w", err))
	}

	newBalance := voucher.OriginalBalance + sum
	if newBalance < 0 || newBalance > voucher.OriginalBalance {
		return apperror.ErrBalanceOutOfRange()
	}

	if err := s.voucherRepo.UpdateBalance(ctx, dbTx, voucher.ID, newBalance); err != nil {
		return apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	voucher.Balance = newBalance
	return nil
}

// lockVoucher fetches a voucher with a row lock and verifies ownership.
// Vouchers belonging to other users are reported as not found.
func (s *LedgerServiceImpl) lockVoucher(ctx context.Context, dbTx pgx.Tx, userID, voucherID uuid.UUID) (*domain.Voucher, error) {
	voucher, err := s.voucherRepo.GetByIDForUpdate(ctx, dbTx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock voucher: %w", err))
	}
	if voucher == nil || voucher.UserID != userID {
		return nil, apperror.ErrNotFound("voucher")
	}
	return voucher, nil
}

// getOwnedVoucher fetches a voucher without locking and verifies ownership.
func (s *LedgerServiceImpl) getOwnedVoucher(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get voucher: %w", err))
	}
	if voucher == nil || voucher.UserID != userID {
		return nil, apperror.ErrNotFound("voucher")
	}
	return voucher, nil
}

// afterMutation invalidates the user's cached dashboard stats and records the
// activity entry. Both are best-effort post-commit steps.
func (s *LedgerServiceImpl) afterMutation(ctx context.Context, userID uuid.UUID, entry *domain.ActivityEntry) {
	if err := s.statsCache.Invalidate(ctx, dashboardCacheKey(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate stats cache")
	}
	s.activitySvc.Record(ctx, entry)
}
