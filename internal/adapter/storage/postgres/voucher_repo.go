package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// voucherColumns is the canonical select list for voucher rows.
const voucherColumns = `id, user_id, name, notes, category_id, original_balance, balance,
		expiry_date, is_active, offer_for_sale, sale_price, contact_info_enc, created_at, updated_at`

// VoucherRepo implements ports.VoucherRepository.
type VoucherRepo struct {
	pool Pool
}

// NewVoucherRepo creates a new VoucherRepo.
func NewVoucherRepo(pool Pool) *VoucherRepo {
	return &VoucherRepo{pool: pool}
}

// Create inserts a new voucher into the database.
func (r *VoucherRepo) Create(ctx context.Context, v *domain.Voucher) error {
	query := `INSERT INTO vouchers (id, user_id, name, notes, category_id, original_balance, balance,
		expiry_date, is_active, offer_for_sale, sale_price, contact_info_enc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.UserID, v.Name, v.Notes, v.CategoryID,
		v.OriginalBalance, v.Balance, v.ExpiryDate, v.IsActive,
		v.OfferForSale, v.SalePrice, v.ContactInfoEnc,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// GetByID fetches a voucher by its UUID (without locking).
func (r *VoucherRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	query := fmt.Sprintf(`SELECT %s FROM vouchers WHERE id = $1`, voucherColumns)
	return r.scanVoucher(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a voucher by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *VoucherRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Voucher, error) {
	query := fmt.Sprintf(`SELECT %s FROM vouchers WHERE id = $1 FOR UPDATE`, voucherColumns)
	return r.scanVoucher(tx.QueryRow(ctx, query, id))
}

// ListByUser fetches a user's vouchers, newest first, with optional filters.
func (r *VoucherRepo) ListByUser(ctx context.Context, params ports.VoucherListParams) ([]domain.Voucher, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIdx))
		args = append(args, *params.CategoryID)
		argIdx++
	}
	if params.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM vouchers WHERE %s ORDER BY created_at DESC`,
		voucherColumns, strings.Join(conditions, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []domain.Voucher
	for rows.Next() {
		v := domain.Voucher{}
		err := rows.Scan(
			&v.ID, &v.UserID, &v.Name, &v.Notes, &v.CategoryID,
			&v.OriginalBalance, &v.Balance, &v.ExpiryDate, &v.IsActive,
			&v.OfferForSale, &v.SalePrice, &v.ContactInfoEnc,
			&v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan voucher row: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voucher rows: %w", err)
	}
	return vouchers, nil
}

// UpdateBalance writes only the balance column within a transaction.
// Other columns stay untouched so concurrent detail edits are never clobbered.
func (r *VoucherRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, balance int64) error {
	query := `UPDATE vouchers SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, voucherID)
	if err != nil {
		return fmt.Errorf("update voucher balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("voucher not found: %s", voucherID)
	}
	return nil
}

// UpdateDetails rewrites the editable detail fields. Balance and sale-listing
// columns are deliberately excluded; each has its own field-level update so
// detail edits never clobber a concurrent ledger write.
func (r *VoucherRepo) UpdateDetails(ctx context.Context, v *domain.Voucher) error {
	query := `UPDATE vouchers SET name = $1, notes = $2, category_id = $3, expiry_date = $4,
		is_active = $5, updated_at = NOW() WHERE id = $6`

	tag, err := r.pool.Exec(ctx, query,
		v.Name, v.Notes, v.CategoryID, v.ExpiryDate, v.IsActive, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update voucher details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("voucher not found: %s", v.ID)
	}
	return nil
}

// UpdateSaleListing writes only the sale-listing columns. Passing nil price
// and contact withdraws the listing.
func (r *VoucherRepo) UpdateSaleListing(ctx context.Context, voucherID uuid.UUID, offerForSale bool, salePrice *int64, contactInfoEnc *string) error {
	query := `UPDATE vouchers SET offer_for_sale = $1, sale_price = $2, contact_info_enc = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, offerForSale, salePrice, contactInfoEnc, voucherID)
	if err != nil {
		return fmt.Errorf("update voucher sale listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("voucher not found: %s", voucherID)
	}
	return nil
}

// Delete removes a voucher within a transaction and reports rows affected.
func (r *VoucherRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete voucher: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanVoucher is a helper to scan a single row into a Voucher.
func (r *VoucherRepo) scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	v := &domain.Voucher{}
	err := row.Scan(
		&v.ID, &v.UserID, &v.Name, &v.Notes, &v.CategoryID,
		&v.OriginalBalance, &v.Balance, &v.ExpiryDate, &v.IsActive,
		&v.OfferForSale, &v.SalePrice, &v.ContactInfoEnc,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan voucher: %w", err)
	}
	return v, nil
}
