package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a ledger entry recording a balance-changing event against a
// voucher. Amount is signed: negative for a spend, positive for a credit.
// A transaction belongs to exactly one voucher for its whole life.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	VoucherID uuid.UUID `json:"voucher_id"`
	Amount    int64     `json:"amount"` // cents, negative = spend

	// PreviousBalance and NewBalance are advisory snapshots taken when the
	// transaction was created or last edited. They are display history only
	// and are never used as input to balance recomputation; after
	// out-of-order edits they can disagree with the chronological ledger.
	PreviousBalance int64 `json:"previous_balance"`
	NewBalance      int64 `json:"new_balance"`

	Description  string     `json:"description"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"` // user-supplied, date-only
	CreatedAt    time.Time  `json:"created_at"`
}

// EffectiveDate is the date used for display ordering: the user-supplied
// purchase date when present, else the system creation timestamp.
func (t *Transaction) EffectiveDate() time.Time {
	if t.PurchaseDate != nil {
		return *t.PurchaseDate
	}
	return t.CreatedAt
}
