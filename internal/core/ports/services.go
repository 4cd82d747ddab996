package ports

import (
	"context"
	"time"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// --- Service Ports (Business Logic) ---

// LedgerService is the voucher ledger reconciliation engine. Every mutation
// keeps the invariant balance == original_balance + sum(amounts) and runs as
// one atomic unit against the store.
type LedgerService interface {
	RecordPurchase(ctx context.Context, req RecordPurchaseRequest) (*domain.Voucher, *domain.Transaction, error)
	EditTransaction(ctx context.Context, req EditTransactionRequest) (*domain.Voucher, *domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Voucher, error)
	DeleteVoucher(ctx context.Context, userID, voucherID uuid.UUID) error
	OfferForSale(ctx context.Context, req OfferForSaleRequest) (*domain.Voucher, error)
	WithdrawFromSale(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error)
	ListTransactions(ctx context.Context, userID, voucherID uuid.UUID) ([]domain.Transaction, error)
}

// RecordPurchaseRequest holds validated input for recording a purchase.
// Amount is the positive spend magnitude in cents; the engine stores it negated.
type RecordPurchaseRequest struct {
	UserID       uuid.UUID
	VoucherID    uuid.UUID
	Amount       int64
	Description  string
	PurchaseDate *time.Time
}

// EditTransactionRequest holds validated input for editing a ledger entry.
type EditTransactionRequest struct {
	UserID        uuid.UUID
	TransactionID uuid.UUID
	Amount        int64 // positive spend magnitude, stored negated
	Description   string
	PurchaseDate  *time.Time
}

// OfferForSaleRequest holds validated input for listing a voucher for sale.
type OfferForSaleRequest struct {
	UserID    uuid.UUID
	VoucherID uuid.UUID
	SalePrice int64
	Contact   domain.ContactInfo
}

// VoucherService manages voucher and category CRUD outside the ledger.
type VoucherService interface {
	CreateVoucher(ctx context.Context, req CreateVoucherRequest) (*domain.Voucher, error)
	GetVoucher(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error)
	ListVouchers(ctx context.Context, params VoucherListParams) ([]domain.Voucher, error)
	UpdateVoucher(ctx context.Context, req UpdateVoucherRequest) (*domain.Voucher, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name string) (*domain.Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
}

// CreateVoucherRequest holds validated input for creating a voucher.
type CreateVoucherRequest struct {
	UserID          uuid.UUID
	Name            string
	Notes           string
	CategoryID      *uuid.UUID
	OriginalBalance int64
	ExpiryDate      time.Time
}

// UpdateVoucherRequest holds validated input for the voucher edit form.
// Nil pointers leave the corresponding field unchanged. Balance is the
// administrative overwrite path; it bypasses the ledger deliberately.
type UpdateVoucherRequest struct {
	UserID     uuid.UUID
	VoucherID  uuid.UUID
	Name       *string
	Notes      *string
	CategoryID *uuid.UUID
	ExpiryDate *time.Time
	IsActive   *bool
	Balance    *int64
}

// ReportingService computes per-user dashboard summaries.
type ReportingService interface {
	GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
}

// DashboardStats holds aggregated voucher statistics.
type DashboardStats struct {
	TotalVouchers    int64 `json:"total_vouchers"`
	Unused           int64 `json:"unused"`
	PartiallyUsed    int64 `json:"partially_used"`
	FullyUsed        int64 `json:"fully_used"`
	Expired          int64 `json:"expired"`
	ExpiringSoon     int64 `json:"expiring_soon"` // within 30 days
	RemainingBalance int64 `json:"remaining_balance"`
	ForSale          int64 `json:"for_sale"`
}

// AuthService manages account registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error)
}

// RegisterRequest holds validated input for account registration.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterResponse is the outcome of a successful registration.
type RegisterResponse struct {
	UserID uuid.UUID
	Email  string
}

// ExportService renders user data as spreadsheet-compatible CSV.
type ExportService interface {
	ExportVouchers(ctx context.Context, userID uuid.UUID) ([]byte, error)
	ExportTransactions(ctx context.Context, userID, voucherID uuid.UUID) ([]byte, error)
}

// ActivityService records and lists user actions.
type ActivityService interface {
	Record(ctx context.Context, e *domain.ActivityEntry)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityEntry, error)
}
