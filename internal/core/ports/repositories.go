package ports

import (
	"context"
	"time"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// VoucherRepository defines persistence operations for vouchers.
// Methods accepting pgx.Tx run inside transaction blocks; the ForUpdate
// variants take a pessimistic row lock so a voucher and its transactions are
// mutated under one serializing boundary.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *domain.Voucher) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Voucher, error)
	ListByUser(ctx context.Context, params VoucherListParams) ([]domain.Voucher, error)
	// UpdateBalance writes only the balance column. Field-level by design:
	// concurrent recomputation must never clobber sale-listing fields.
	UpdateBalance(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, balance int64) error
	// UpdateDetails writes the editable detail fields (name, notes, category,
	// expiry, active flag) plus an administrative balance overwrite.
	UpdateDetails(ctx context.Context, v *domain.Voucher) error
	// UpdateSaleListing writes only the sale fields. Pass nil price and
	// contact to withdraw the listing.
	UpdateSaleListing(ctx context.Context, voucherID uuid.UUID, offerForSale bool, salePrice *int64, contactInfoEnc *string) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
}

// VoucherListParams holds filters for listing a user's vouchers.
type VoucherListParams struct {
	UserID     uuid.UUID
	CategoryID *uuid.UUID
	ActiveOnly bool
}

// TransactionRepository defines persistence operations for ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// Update rewrites the mutable fields (amount, snapshot pair, description,
	// purchase date) of an existing entry.
	Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
	// ListByVoucher returns entries most-recent-first by purchase date,
	// falling back to the creation timestamp.
	ListByVoucher(ctx context.Context, voucherID uuid.UUID) ([]domain.Transaction, error)
	// SumAmounts folds the full entry set inside the given transaction.
	// This is the recomputation primitive: order-independent pure addition.
	SumAmounts(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error)
	DeleteByVoucher(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error)
}

// CategoryRepository defines persistence operations for voucher categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Category, error)
	// Delete detaches the category from its vouchers and removes it.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// ActivityRepository defines persistence for the per-user activity feed.
type ActivityRepository interface {
	Create(ctx context.Context, e *domain.ActivityEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityEntry, error)
}

// StatsCache caches computed dashboard summaries with a TTL.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
