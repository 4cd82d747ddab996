package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"voucherbox/internal/core/ports"
	"voucherbox/pkg/apperror"
	"voucherbox/pkg/money"

	"github.com/google/uuid"
)

// exportService implements ports.ExportService, rendering CSV that opens
// cleanly in spreadsheet software.
type exportService struct {
	voucherRepo ports.VoucherRepository
	txRepo      ports.TransactionRepository
}

// NewExportService creates a new export service.
func NewExportService(voucherRepo ports.VoucherRepository, txRepo ports.TransactionRepository) ports.ExportService {
	return &exportService{voucherRepo: voucherRepo, txRepo: txRepo}
}

// ExportVouchers renders the user's vouchers as CSV.
func (s *exportService) ExportVouchers(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	vouchers, err := s.voucherRepo.ListByUser(ctx, ports.VoucherListParams{UserID: userID})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list vouchers: %w", err))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	now := time.Now().UTC()

	header := []string{"name", "state", "original_balance", "balance", "expiry_date", "active", "for_sale", "notes"}
	if err := w.Write(header); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}

	for i := range vouchers {
		v := &vouchers[i]
		record := []string{
			v.Name,
			string(v.State(now)),
			money.Format(v.OriginalBalance),
			money.Format(v.Balance),
			v.ExpiryDate.Format("2006-01-02"),
			fmt.Sprintf("%t", v.IsActive),
			fmt.Sprintf("%t", v.OfferForSale),
			v.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write csv record: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return buf.Bytes(), nil
}

// ExportTransactions renders a voucher's ledger as CSV, enforcing ownership.
func (s *exportService) ExportTransactions(ctx context.Context, userID, voucherID uuid.UUID) ([]byte, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get voucher: %w", err))
	}
	if voucher == nil || voucher.UserID != userID {
		return nil, apperror.ErrNotFound("voucher")
	}

	txns, err := s.txRepo.ListByVoucher(ctx, voucherID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "description", "amount", "balance_after"}
	if err := w.Write(header); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}

	for i := range txns {
		t := &txns[i]
		record := []string{
			t.EffectiveDate().Format("2006-01-02"),
			t.Description,
			money.Format(t.Amount),
			money.Format(t.NewBalance),
		}
		if err := w.Write(record); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write csv record: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return buf.Bytes(), nil
}
