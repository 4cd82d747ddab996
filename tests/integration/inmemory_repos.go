package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Voucher Repo ---

// inMemoryVoucherRepo serializes ForUpdate access with a single mutex held
// per call, not per transaction. Concurrency tests pair it with the
// lockingTransactor below, which emulates the row-lock serialization.
type inMemoryVoucherRepo struct {
	mu       sync.RWMutex
	vouchers map[uuid.UUID]*domain.Voucher
}

func newInMemoryVoucherRepo() *inMemoryVoucherRepo {
	return &inMemoryVoucherRepo{vouchers: make(map[uuid.UUID]*domain.Voucher)}
}

func (r *inMemoryVoucherRepo) Create(ctx context.Context, v *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.vouchers[v.ID] = &cp
	return nil
}

func (r *inMemoryVoucherRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vouchers[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *inMemoryVoucherRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Voucher, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryVoucherRepo) ListByUser(ctx context.Context, params ports.VoucherListParams) ([]domain.Voucher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Voucher
	for _, v := range r.vouchers {
		if v.UserID != params.UserID {
			continue
		}
		if params.ActiveOnly && !v.IsActive {
			continue
		}
		if params.CategoryID != nil && (v.CategoryID == nil || *v.CategoryID != *params.CategoryID) {
			continue
		}
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryVoucherRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok {
		return fmt.Errorf("voucher not found")
	}
	v.Balance = balance
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryVoucherRepo) UpdateDetails(ctx context.Context, v *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.vouchers[v.ID]
	if !ok {
		return fmt.Errorf("voucher not found")
	}
	existing.Name = v.Name
	existing.Notes = v.Notes
	existing.CategoryID = v.CategoryID
	existing.ExpiryDate = v.ExpiryDate
	existing.IsActive = v.IsActive
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryVoucherRepo) UpdateSaleListing(ctx context.Context, voucherID uuid.UUID, offerForSale bool, salePrice *int64, contactInfoEnc *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok {
		return fmt.Errorf("voucher not found")
	}
	v.OfferForSale = offerForSale
	v.SalePrice = salePrice
	v.ContactInfoEnc = contactInfoEnc
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryVoucherRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vouchers[id]; !ok {
		return 0, nil
	}
	delete(r.vouchers, id)
	return 1, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction not found")
	}
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[id]; !ok {
		return 0, nil
	}
	delete(r.transactions, id)
	return 1, nil
}

func (r *inMemoryTransactionRepo) ListByVoucher(ctx context.Context, voucherID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.VoucherID == voucherID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveDate().After(result[j].EffectiveDate())
	})
	return result, nil
}

func (r *inMemoryTransactionRepo) SumAmounts(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.transactions {
		if t.VoucherID == voucherID {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) DeleteByVoucher(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.transactions {
		if t.VoucherID == voucherID {
			delete(r.transactions, id)
			n++
		}
	}
	return n, nil
}

// --- In-Memory Category Repo ---

type inMemoryCategoryRepo struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]*domain.Category
	vouchers   *inMemoryVoucherRepo
}

func newInMemoryCategoryRepo(vouchers *inMemoryVoucherRepo) *inMemoryCategoryRepo {
	return &inMemoryCategoryRepo{
		categories: make(map[uuid.UUID]*domain.Category),
		vouchers:   vouchers,
	}
}

func (r *inMemoryCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *inMemoryCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCategoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Category
	for _, c := range r.categories {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *inMemoryCategoryRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return 0, nil
	}
	delete(r.categories, id)

	// Detach vouchers, mirroring the SQL cascade.
	r.vouchers.mu.Lock()
	for _, v := range r.vouchers.vouchers {
		if v.CategoryID != nil && *v.CategoryID == id {
			v.CategoryID = nil
		}
	}
	r.vouchers.mu.Unlock()
	return 1, nil
}

// --- In-Memory Activity Repo ---

type inMemoryActivityRepo struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry
}

func newInMemoryActivityRepo() *inMemoryActivityRepo {
	return &inMemoryActivityRepo{}
}

func (r *inMemoryActivityRepo) Create(ctx context.Context, e *domain.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ActivityEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ActivityEntry
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if r.entries[i].UserID == userID {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

// --- In-Memory Transactor ---

// lockingTransactor holds one global mutex for the lifetime of each
// transaction, standing in for SELECT ... FOR UPDATE row serialization.
type lockingTransactor struct {
	mu sync.Mutex
}

func newLockingTransactor() *lockingTransactor {
	return &lockingTransactor{}
}

func (t *lockingTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &noopTx{release: &t.mu}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing. Commit and
// Rollback release the transactor lock exactly once.
type noopTx struct {
	release  *sync.Mutex
	released bool
	mu       sync.Mutex
}

func (t *noopTx) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.released && t.release != nil {
		t.release.Unlock()
		t.released = true
	}
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
