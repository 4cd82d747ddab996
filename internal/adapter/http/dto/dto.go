package dto

import (
	"time"

	"voucherbox/internal/core/domain"
	"voucherbox/pkg/money"
)

// Monetary amounts cross the API as decimal strings ("12.50") and are parsed
// to int64 cents at the handler boundary. Dates are "2006-01-02".
const DateLayout = "2006-01-02"

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateVoucherRequest is the request body for creating a voucher.
type CreateVoucherRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=100"`
	Notes           string  `json:"notes" binding:"max=2000"`
	CategoryID      *string `json:"category_id,omitempty" binding:"omitempty,safe_id"`
	OriginalBalance string  `json:"original_balance" binding:"required"`
	ExpiryDate      string  `json:"expiry_date" binding:"required"`
}

// UpdateVoucherRequest is the request body for the voucher edit form.
// Absent fields leave the voucher unchanged. Balance is the administrative
// overwrite; it replaces the ledger-derived balance directly.
type UpdateVoucherRequest struct {
	Name       *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Notes      *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
	CategoryID *string `json:"category_id,omitempty" binding:"omitempty,safe_id"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Balance    *string `json:"balance,omitempty"`
}

// PurchaseRequest is the request body for recording a spend against a voucher.
type PurchaseRequest struct {
	Amount       string  `json:"amount" binding:"required"`
	Description  string  `json:"description" binding:"max=500"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
}

// EditTransactionRequest is the request body for editing a ledger entry.
type EditTransactionRequest struct {
	Amount       string  `json:"amount" binding:"required"`
	Description  string  `json:"description" binding:"max=500"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
}

// OfferForSaleRequest is the request body for listing a voucher for sale.
type OfferForSaleRequest struct {
	SalePrice    string `json:"sale_price" binding:"required"`
	ContactPhone string `json:"contact_phone" binding:"max=32"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=255"`
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// VoucherResponse is the API shape of a voucher.
type VoucherResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Notes           string  `json:"notes,omitempty"`
	CategoryID      *string `json:"category_id,omitempty"`
	OriginalBalance string  `json:"original_balance"`
	Balance         string  `json:"balance"`
	ExpiryDate      string  `json:"expiry_date"`
	State           string  `json:"state"`
	IsActive        bool    `json:"is_active"`
	IsNew           bool    `json:"is_new"`
	OfferForSale    bool    `json:"offer_for_sale"`
	SalePrice       *string `json:"sale_price,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// TransactionResponse is the API shape of a ledger entry.
type TransactionResponse struct {
	ID              string  `json:"id"`
	VoucherID       string  `json:"voucher_id"`
	Amount          string  `json:"amount"` // signed, negative = spend
	PreviousBalance string  `json:"previous_balance"`
	NewBalance      string  `json:"new_balance"`
	Description     string  `json:"description,omitempty"`
	PurchaseDate    *string `json:"purchase_date,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// CategoryResponse is the API shape of a category.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActivityResponse is the API shape of an activity feed entry.
type ActivityResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ToVoucherResponse converts a domain voucher for API output.
func ToVoucherResponse(v *domain.Voucher, now time.Time) VoucherResponse {
	resp := VoucherResponse{
		ID:              v.ID.String(),
		Name:            v.Name,
		Notes:           v.Notes,
		OriginalBalance: money.Format(v.OriginalBalance),
		Balance:         money.Format(v.Balance),
		ExpiryDate:      v.ExpiryDate.Format(DateLayout),
		State:           string(v.State(now)),
		IsActive:        v.IsActive,
		IsNew:           v.IsNew(now),
		OfferForSale:    v.OfferForSale,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
	if v.CategoryID != nil {
		id := v.CategoryID.String()
		resp.CategoryID = &id
	}
	if v.SalePrice != nil {
		price := money.Format(*v.SalePrice)
		resp.SalePrice = &price
	}
	return resp
}

// ToVoucherResponses converts a slice of domain vouchers for API output.
func ToVoucherResponses(vouchers []domain.Voucher, now time.Time) []VoucherResponse {
	out := make([]VoucherResponse, 0, len(vouchers))
	for i := range vouchers {
		out = append(out, ToVoucherResponse(&vouchers[i], now))
	}
	return out
}

// ToTransactionResponse converts a domain transaction for API output.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID.String(),
		VoucherID:       t.VoucherID.String(),
		Amount:          money.Format(t.Amount),
		PreviousBalance: money.Format(t.PreviousBalance),
		NewBalance:      money.Format(t.NewBalance),
		Description:     t.Description,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.PurchaseDate != nil {
		d := t.PurchaseDate.Format(DateLayout)
		resp.PurchaseDate = &d
	}
	return resp
}

// ToTransactionResponses converts a slice of domain transactions for API output.
func ToTransactionResponses(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, ToTransactionResponse(&txs[i]))
	}
	return out
}

// ToCategoryResponse converts a domain category for API output.
func ToCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID.String(), Name: c.Name}
}

// ToActivityResponses converts activity entries for API output.
func ToActivityResponses(entries []domain.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:         e.ID.String(),
			Action:     string(e.Action),
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
