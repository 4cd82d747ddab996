package postgres

import (
	"context"
	"testing"
	"time"

	"voucherbox/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(voucherID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	purchase := now.AddDate(0, 0, -1)
	return &domain.Transaction{
		ID:              uuid.New(),
		VoucherID:       voucherID,
		Amount:          -1250,
		PreviousBalance: 5000,
		NewBalance:      3750,
		Description:     "coffee",
		PurchaseDate:    &purchase,
		CreatedAt:       now,
	}
}

func entryColumns() []string {
	return []string{"id", "voucher_id", "amount", "previous_balance", "new_balance", "description", "purchase_date", "created_at"}
}

func entryRow(e *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(entryColumns()).AddRow(
		e.ID, e.VoucherID, e.Amount, e.PreviousBalance, e.NewBalance,
		e.Description, e.PurchaseDate, e.CreatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(e.ID, e.VoucherID, e.Amount, e.PreviousBalance, e.NewBalance,
			e.Description, e.PurchaseDate, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(e.ID).
		WillReturnRows(entryRow(e))

	result, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(-1250), result.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(entryColumns()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransactionRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET amount").
		WithArgs(e.Amount, e.PreviousBalance, e.NewBalance, e.Description, e.PurchaseDate, e.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM transactions WHERE id").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	affected, err := repo.Delete(context.Background(), tx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestTransactionRepo_SumAmounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	voucherID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM transactions").
		WithArgs(voucherID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(-2250)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumAmounts(context.Background(), tx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, int64(-2250), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumAmounts_EmptyLedger(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	voucherID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM transactions").
		WithArgs(voucherID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumAmounts(context.Background(), tx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestTransactionRepo_ListByVoucher(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	voucherID := uuid.New()
	first := newTestEntry(voucherID)
	second := newTestEntry(voucherID)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE voucher_id = \\$1").
		WithArgs(voucherID).
		WillReturnRows(pgxmock.NewRows(entryColumns()).
			AddRow(first.ID, first.VoucherID, first.Amount, first.PreviousBalance, first.NewBalance,
				first.Description, first.PurchaseDate, first.CreatedAt).
			AddRow(second.ID, second.VoucherID, second.Amount, second.PreviousBalance, second.NewBalance,
				second.Description, second.PurchaseDate, second.CreatedAt))

	result, err := repo.ListByVoucher(context.Background(), voucherID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, first.ID, result[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_DeleteByVoucher(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	voucherID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM transactions WHERE voucher_id").
		WithArgs(voucherID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	affected, err := repo.DeleteByVoucher(context.Background(), tx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}
