package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoucherState is the derived ledger state of a voucher. It is never stored;
// it is computed from the balance and the expiry date at read time.
type VoucherState string

const (
	VoucherStateUnused        VoucherState = "UNUSED"
	VoucherStatePartiallyUsed VoucherState = "PARTIALLY_USED"
	VoucherStateFullyUsed     VoucherState = "FULLY_USED"
	VoucherStateExpired       VoucherState = "EXPIRED"
)

// newVoucherWindow is how long a freshly created voucher is flagged as "new"
// in listings. Presentation-only; it does not affect the ledger.
const newVoucherWindow = 7 * 24 * time.Hour

// Voucher represents a tracked gift card or coupon. Balance is authoritative
// and must always equal OriginalBalance plus the sum of all transaction
// amounts on the voucher. All monetary values are int64 cents.
type Voucher struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Name            string     `json:"name"`
	Notes           string     `json:"notes,omitempty"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	OriginalBalance int64      `json:"original_balance"` // face value, immutable after creation
	Balance         int64      `json:"balance"`
	ExpiryDate      time.Time  `json:"expiry_date"` // date-only, no time component
	IsActive        bool       `json:"is_active"`
	OfferForSale    bool       `json:"offer_for_sale"`
	SalePrice       *int64     `json:"sale_price,omitempty"`
	ContactInfoEnc  *string    `json:"-"` // AES-256 encrypted, never expose raw
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// State derives the ledger state at the given instant. Expiry overrides the
// balance-derived states.
func (v *Voucher) State(now time.Time) VoucherState {
	if v.IsExpired(now) {
		return VoucherStateExpired
	}
	switch {
	case v.Balance <= 0:
		return VoucherStateFullyUsed
	case v.Balance < v.OriginalBalance:
		return VoucherStatePartiallyUsed
	default:
		return VoucherStateUnused
	}
}

// IsExpired reports whether the expiry date has passed. Expiry is date-only:
// the voucher stays valid through the end of its expiry day.
func (v *Voucher) IsExpired(now time.Time) bool {
	expiryEnd := v.ExpiryDate.AddDate(0, 0, 1)
	return !now.Before(expiryEnd)
}

// IsNew reports whether the voucher was created within the recent-voucher
// window. Presentation-only sub-state of UNUSED.
func (v *Voucher) IsNew(now time.Time) bool {
	return now.Sub(v.CreatedAt) < newVoucherWindow
}

// ContactInfo holds the seller's contact channels for a sale listing.
// Serialized to JSON and encrypted before persistence.
type ContactInfo struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// HasChannel reports whether at least one contact channel is present.
func (c ContactInfo) HasChannel() bool {
	return c.Phone != "" || c.Email != ""
}

// DateOnly truncates a timestamp to its date in UTC. Expiry and purchase
// dates are persisted without a time component.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
