package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voucherbox/internal/adapter/http/handler"
	"voucherbox/internal/core/domain"
	"voucherbox/internal/core/ports"
	"voucherbox/internal/core/ports/mocks"
	"voucherbox/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerDeps struct {
	authSvc      *mocks.MockAuthService
	ledgerSvc    *mocks.MockLedgerService
	voucherSvc   *mocks.MockVoucherService
	reportingSvc *mocks.MockReportingService
	activitySvc  *mocks.MockActivityService
	exportSvc    *mocks.MockExportService
	tokenSvc     *mocks.MockTokenService
	router       *gin.Engine
}

func setupTestRouter(t *testing.T) *routerDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	d := &routerDeps{
		authSvc:      mocks.NewMockAuthService(ctrl),
		ledgerSvc:    mocks.NewMockLedgerService(ctrl),
		voucherSvc:   mocks.NewMockVoucherService(ctrl),
		reportingSvc: mocks.NewMockReportingService(ctrl),
		activitySvc:  mocks.NewMockActivityService(ctrl),
		exportSvc:    mocks.NewMockExportService(ctrl),
		tokenSvc:     mocks.NewMockTokenService(ctrl),
	}
	d.router = handler.SetupRouter(handler.RouterDeps{
		AuthSvc:      d.authSvc,
		LedgerSvc:    d.ledgerSvc,
		VoucherSvc:   d.voucherSvc,
		ReportingSvc: d.reportingSvc,
		ActivitySvc:  d.activitySvc,
		ExportSvc:    d.exportSvc,
		TokenSvc:     d.tokenSvc,
		Logger:       zerolog.Nop(),
	})
	return d
}

// authorize wires the token mock to accept "test-token" for the given user.
func (d *routerDeps) authorize(userID uuid.UUID) {
	d.tokenSvc.EXPECT().Validate("test-token").Return(&ports.TokenClaims{
		UserID: userID,
		Email:  "user@example.com",
	}, nil).AnyTimes()
}

func doJSON(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func sampleVoucher(userID uuid.UUID) *domain.Voucher {
	now := time.Now().UTC()
	return &domain.Voucher{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            "Coffee Card",
		OriginalBalance: 5000,
		Balance:         3750,
		ExpiryDate:      domain.DateOnly(now.AddDate(1, 0, 0)),
		IsActive:        true,
		CreatedAt:       now,
	}
}

// --- Auth ---

func TestRegister_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()

	d.authSvc.EXPECT().
		Register(gomock.Any(), ports.RegisterRequest{
			Email:       "alice@example.com",
			Password:    "password123",
			DisplayName: "Alice",
		}).
		Return(&ports.RegisterResponse{UserID: userID, Email: "alice@example.com"}, nil)

	w := doJSON(d.router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":        "alice@example.com",
		"password":     "password123",
		"display_name": "Alice",
	}, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, userID.String(), data["user_id"])
}

func TestRegister_InvalidBody(t *testing.T) {
	d := setupTestRouter(t)

	w := doJSON(d.router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "not-an-email",
		"password": "short",
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	d := setupTestRouter(t)

	d.authSvc.EXPECT().
		Login(gomock.Any(), "alice@example.com", "wrongpass").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := doJSON(d.router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrongpass",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

// --- Vouchers ---

func TestCreateVoucher_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)

	voucher := sampleVoucher(userID)
	voucher.Balance = 5000

	d.voucherSvc.EXPECT().
		CreateVoucher(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.CreateVoucherRequest) (*domain.Voucher, error) {
			assert.Equal(t, userID, req.UserID)
			assert.Equal(t, "Coffee Card", req.Name)
			assert.Equal(t, int64(5000), req.OriginalBalance)
			return voucher, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/vouchers", gin.H{
		"name":             "Coffee Card",
		"original_balance": "50.00",
		"expiry_date":      "2027-06-30",
	}, "test-token")

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "50.00", data["balance"])
	assert.Equal(t, "UNUSED", data["state"])
}

func TestCreateVoucher_BadAmount(t *testing.T) {
	d := setupTestRouter(t)
	d.authorize(uuid.New())

	w := doJSON(d.router, http.MethodPost, "/api/v1/vouchers", gin.H{
		"name":             "Coffee Card",
		"original_balance": "12.345",
		"expiry_date":      "2027-06-30",
	}, "test-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateVoucher_Unauthorized(t *testing.T) {
	d := setupTestRouter(t)

	w := doJSON(d.router, http.MethodPost, "/api/v1/vouchers", gin.H{
		"name":             "Coffee Card",
		"original_balance": "50.00",
		"expiry_date":      "2027-06-30",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetVoucher_NotFound(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucherID := uuid.New()

	d.voucherSvc.EXPECT().
		GetVoucher(gomock.Any(), userID, voucherID).
		Return(nil, apperror.ErrNotFound("voucher"))

	w := doJSON(d.router, http.MethodGet, "/api/v1/vouchers/"+voucherID.String(), nil, "test-token")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NF_001")
}

func TestListVouchers_CategoryFilter(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	catID := uuid.New()

	d.voucherSvc.EXPECT().
		ListVouchers(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params ports.VoucherListParams) ([]domain.Voucher, error) {
			assert.Equal(t, userID, params.UserID)
			require.NotNil(t, params.CategoryID)
			assert.Equal(t, catID, *params.CategoryID)
			assert.True(t, params.ActiveOnly)
			return []domain.Voucher{*sampleVoucher(userID)}, nil
		})

	w := doJSON(d.router, http.MethodGet,
		"/api/v1/vouchers?category_id="+catID.String()+"&active=true", nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Coffee Card")
}

func TestUpdateVoucher_BalanceOverwrite(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucher := sampleVoucher(userID)

	d.voucherSvc.EXPECT().
		UpdateVoucher(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.UpdateVoucherRequest) (*domain.Voucher, error) {
			require.NotNil(t, req.Balance)
			assert.Equal(t, int64(2000), *req.Balance)
			assert.Nil(t, req.Name)
			voucher.Balance = 2000
			return voucher, nil
		})

	w := doJSON(d.router, http.MethodPut, "/api/v1/vouchers/"+voucher.ID.String(), gin.H{
		"balance": "20.00",
	}, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "20.00", data["balance"])
}

func TestDeleteVoucher_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucherID := uuid.New()

	d.ledgerSvc.EXPECT().
		DeleteVoucher(gomock.Any(), userID, voucherID).
		Return(nil)

	w := doJSON(d.router, http.MethodDelete, "/api/v1/vouchers/"+voucherID.String(), nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Ledger ---

func TestRecordPurchase_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucher := sampleVoucher(userID)

	tx := &domain.Transaction{
		ID:              uuid.New(),
		VoucherID:       voucher.ID,
		Amount:          -1250,
		PreviousBalance: 5000,
		NewBalance:      3750,
		Description:     "coffee run",
		CreatedAt:       time.Now().UTC(),
	}

	d.ledgerSvc.EXPECT().
		RecordPurchase(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.RecordPurchaseRequest) (*domain.Voucher, *domain.Transaction, error) {
			assert.Equal(t, userID, req.UserID)
			assert.Equal(t, voucher.ID, req.VoucherID)
			assert.Equal(t, int64(1250), req.Amount)
			assert.Equal(t, "coffee run", req.Description)
			return voucher, tx, nil
		})

	w := doJSON(d.router, http.MethodPost,
		"/api/v1/vouchers/"+voucher.ID.String()+"/transactions", gin.H{
			"amount":      "12.50",
			"description": "coffee run",
		}, "test-token")

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	txData := data["transaction"].(map[string]any)
	assert.Equal(t, "-12.50", txData["amount"])
	voucherData := data["voucher"].(map[string]any)
	assert.Equal(t, "37.50", voucherData["balance"])
}

func TestRecordPurchase_InsufficientBalance(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucherID := uuid.New()

	d.ledgerSvc.EXPECT().
		RecordPurchase(gomock.Any(), gomock.Any()).
		Return(nil, nil, apperror.ErrInsufficientBalance())

	w := doJSON(d.router, http.MethodPost,
		"/api/v1/vouchers/"+voucherID.String()+"/transactions", gin.H{
			"amount": "999.00",
		}, "test-token")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LED_002")
}

func TestRecordPurchase_ZeroAmountRejected(t *testing.T) {
	d := setupTestRouter(t)
	d.authorize(uuid.New())

	w := doJSON(d.router, http.MethodPost,
		"/api/v1/vouchers/"+uuid.New().String()+"/transactions", gin.H{
			"amount": "0.00",
		}, "test-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LED_001")
}

func TestEditTransaction_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucher := sampleVoucher(userID)
	txID := uuid.New()

	tx := &domain.Transaction{
		ID:              txID,
		VoucherID:       voucher.ID,
		Amount:          -2000,
		PreviousBalance: 5000,
		NewBalance:      3000,
		CreatedAt:       time.Now().UTC(),
	}

	d.ledgerSvc.EXPECT().
		EditTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.EditTransactionRequest) (*domain.Voucher, *domain.Transaction, error) {
			assert.Equal(t, txID, req.TransactionID)
			assert.Equal(t, int64(2000), req.Amount)
			return voucher, tx, nil
		})

	w := doJSON(d.router, http.MethodPut, "/api/v1/transactions/"+txID.String(), gin.H{
		"amount": "20.00",
	}, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteTransaction_ReturnsRestoredVoucher(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucher := sampleVoucher(userID)
	voucher.Balance = 5000
	txID := uuid.New()

	d.ledgerSvc.EXPECT().
		DeleteTransaction(gomock.Any(), userID, txID).
		Return(voucher, nil)

	w := doJSON(d.router, http.MethodDelete, "/api/v1/transactions/"+txID.String(), nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	voucherData := data["voucher"].(map[string]any)
	assert.Equal(t, "50.00", voucherData["balance"])
}

func TestListTransactions_BadVoucherID(t *testing.T) {
	d := setupTestRouter(t)
	d.authorize(uuid.New())

	w := doJSON(d.router, http.MethodGet, "/api/v1/vouchers/not-a-uuid/transactions", nil, "test-token")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Sale listing ---

func TestOfferForSale_Success(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)
	voucher := sampleVoucher(userID)
	price := int64(4000)
	voucher.OfferForSale = true
	voucher.SalePrice = &price

	d.ledgerSvc.EXPECT().
		OfferForSale(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.OfferForSaleRequest) (*domain.Voucher, error) {
			assert.Equal(t, int64(4000), req.SalePrice)
			assert.Equal(t, "+15551234", req.Contact.Phone)
			return voucher, nil
		})

	w := doJSON(d.router, http.MethodPost, "/api/v1/vouchers/"+voucher.ID.String()+"/sale", gin.H{
		"sale_price":    "40.00",
		"contact_phone": "+15551234",
	}, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["offer_for_sale"])
	assert.Equal(t, "40.00", data["sale_price"])
}

func TestOfferForSale_ContactRequired(t *testing.T) {
	d := setupTestRouter(t)
	d.authorize(uuid.New())

	d.ledgerSvc.EXPECT().
		OfferForSale(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrContactRequired())

	w := doJSON(d.router, http.MethodPost, "/api/v1/vouchers/"+uuid.New().String()+"/sale", gin.H{
		"sale_price": "40.00",
	}, "test-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LED_007")
}

// --- Dashboard / activity ---

func TestGetDashboardStats(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)

	d.reportingSvc.EXPECT().
		GetDashboardStats(gomock.Any(), userID).
		Return(&ports.DashboardStats{
			TotalVouchers:    3,
			PartiallyUsed:    1,
			RemainingBalance: 8750,
		}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/dashboard/stats", nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(3), data["total_vouchers"])
	assert.Equal(t, float64(8750), data["remaining_balance"])
}

func TestListActivity(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)

	d.activitySvc.EXPECT().
		List(gomock.Any(), userID, 10).
		Return([]domain.ActivityEntry{
			{
				ID:         uuid.New(),
				UserID:     userID,
				Action:     domain.ActivityPurchaseRecorded,
				EntityType: "voucher",
				EntityID:   uuid.New(),
				Detail:     "spent 12.50 on Coffee Card",
				CreatedAt:  time.Now().UTC(),
			},
		}, nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/activity?limit=10", nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PURCHASE_RECORDED")
}

// --- Export ---

func TestExportVouchers_SetsCSVHeaders(t *testing.T) {
	d := setupTestRouter(t)
	userID := uuid.New()
	d.authorize(userID)

	d.exportSvc.EXPECT().
		ExportVouchers(gomock.Any(), userID).
		Return([]byte("name,state\nCoffee Card,UNUSED\n"), nil)

	w := doJSON(d.router, http.MethodGet, "/api/v1/export/vouchers", nil, "test-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "vouchers.csv")
	assert.Contains(t, w.Body.String(), "Coffee Card")
}

// --- Health ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                 { return f.name }
func (f fakeChecker) Ping(_ context.Context) error { return f.err }

func TestHealthCheck_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", handler.HealthCheck(
		fakeChecker{name: "postgresql"},
		fakeChecker{name: "redis", err: errors.New("connection refused")},
	))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
	assert.Contains(t, w.Body.String(), "connection refused")
}
