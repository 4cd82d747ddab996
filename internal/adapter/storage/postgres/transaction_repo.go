package postgres

import (
	"context"
	"errors"
	"fmt"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, voucher_id, amount, previous_balance, new_balance, description, purchase_date, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, voucher_id, amount, previous_balance, new_balance, description, purchase_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.VoucherID, t.Amount, t.PreviousBalance, t.NewBalance,
		t.Description, t.PurchaseDate, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// Update rewrites the mutable fields of an entry within a database transaction.
func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `UPDATE transactions SET amount = $1, previous_balance = $2, new_balance = $3,
		description = $4, purchase_date = $5 WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		t.Amount, t.PreviousBalance, t.NewBalance, t.Description, t.PurchaseDate, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	return nil
}

// Delete removes an entry within a database transaction and reports rows affected.
func (r *TransactionRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByVoucher fetches a voucher's entries most-recent-first, ordering by
// the user-supplied purchase date with the record timestamp as fallback.
func (r *TransactionRepo) ListByVoucher(ctx context.Context, voucherID uuid.UUID) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE voucher_id = $1
		ORDER BY COALESCE(purchase_date, created_at) DESC, created_at DESC`, transactionColumns)

	rows, err := r.pool.Query(ctx, query, voucherID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.VoucherID, &t.Amount, &t.PreviousBalance, &t.NewBalance,
			&t.Description, &t.PurchaseDate, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// SumAmounts folds the voucher's full entry set inside the given transaction.
// Must run after the voucher row is locked so the sum cannot race a mutation.
func (r *TransactionRepo) SumAmounts(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE voucher_id = $1`

	var sum int64
	if err := tx.QueryRow(ctx, query, voucherID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transaction amounts: %w", err)
	}
	return sum, nil
}

// DeleteByVoucher removes all of a voucher's entries within a transaction.
func (r *TransactionRepo) DeleteByVoucher(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE voucher_id = $1`, voucherID)
	if err != nil {
		return 0, fmt.Errorf("delete voucher transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.VoucherID, &t.Amount, &t.PreviousBalance, &t.NewBalance,
		&t.Description, &t.PurchaseDate, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
