package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction identifies the kind of recorded user action.
type ActivityAction string

const (
	ActivityVoucherCreated     ActivityAction = "VOUCHER_CREATED"
	ActivityVoucherUpdated     ActivityAction = "VOUCHER_UPDATED"
	ActivityVoucherDeleted     ActivityAction = "VOUCHER_DELETED"
	ActivityPurchaseRecorded   ActivityAction = "PURCHASE_RECORDED"
	ActivityTransactionEdited  ActivityAction = "TRANSACTION_EDITED"
	ActivityTransactionDeleted ActivityAction = "TRANSACTION_DELETED"
	ActivitySaleListed         ActivityAction = "SALE_LISTED"
	ActivitySaleWithdrawn      ActivityAction = "SALE_WITHDRAWN"
)

// ActivityEntry is one row of the per-user activity feed.
type ActivityEntry struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Action     ActivityAction `json:"action"`
	EntityType string         `json:"entity_type"` // "voucher" or "transaction"
	EntityID   uuid.UUID      `json:"entity_id"`
	Detail     string         `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
