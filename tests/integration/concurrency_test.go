package integration

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentPurchases fires concurrent spends against one voucher. The
// transactor serializes each mutation the way SELECT ... FOR UPDATE does
// against PostgreSQL, so the ledger must stay exact: every accepted spend is
// reflected in the final balance and the balance never goes negative.
func TestConcurrentPurchases(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "concurrent@example.com")
	voucherID := createVoucher(t, app, token, "Contended Card", "100.00")

	// 20 concurrent spends of 10.00 against a 100.00 balance: exactly 10
	// must succeed, the rest must fail with insufficient balance.
	concurrency := 20
	var wg sync.WaitGroup
	var successCount, rejectCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"amount":"10.00","description":"spend %d"}`, idx)
			req, _ := http.NewRequest(http.MethodPost,
				app.server.URL+"/api/v1/vouchers/"+voucherID+"/transactions",
				bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusUnprocessableEntity:
				rejectCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("concurrent purchases: %d succeeded, %d rejected", successCount.Load(), rejectCount.Load())
	assert.Equal(t, int64(10), successCount.Load(), "exactly 10 spends fit into 100.00")
	assert.Equal(t, int64(10), rejectCount.Load(), "the rest must be rejected")

	// Final balance is exactly zero and the ledger reconciles.
	resp, parsed := app.do(t, http.MethodGet, "/api/v1/vouchers/"+voucherID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := dataOf(t, parsed)
	assert.Equal(t, "0.00", data["balance"])
	assert.Equal(t, "FULLY_USED", data["state"])

	resp2, parsed2 := app.do(t, http.MethodGet, "/api/v1/vouchers/"+voucherID+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	entries := parsed2["data"].([]any)
	assert.Len(t, entries, 10)
}

// TestConcurrentEditAndDelete hammers one ledger entry with concurrent edits
// and deletes. Whatever interleaving wins, the invariant must hold: the final
// balance equals the face value plus the sum of the surviving entries.
func TestConcurrentEditAndDelete(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "editwar@example.com")
	voucherID := createVoucher(t, app, token, "Edited Card", "50.00")

	resp, parsed := app.do(t, http.MethodPost, "/api/v1/vouchers/"+voucherID+"/transactions", token, map[string]string{
		"amount": "10.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txID := dataOf(t, parsed)["transaction"].(map[string]any)["id"].(string)

	concurrency := 10
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			var req *http.Request
			if idx%2 == 0 {
				body := fmt.Sprintf(`{"amount":"%d.00"}`, 5+idx)
				req, _ = http.NewRequest(http.MethodPut,
					app.server.URL+"/api/v1/transactions/"+txID,
					bytes.NewBufferString(body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req, _ = http.NewRequest(http.MethodDelete,
					app.server.URL+"/api/v1/transactions/"+txID, nil)
			}
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)
		}(i)
	}
	wg.Wait()

	// Reconcile from scratch: balance == 50.00 + sum(amounts of survivors).
	resp2, parsed2 := app.do(t, http.MethodGet, "/api/v1/vouchers/"+voucherID+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var sum int64
	if entries, ok := parsed2["data"].([]any); ok {
		for _, e := range entries {
			entry := e.(map[string]any)
			cents, err := parseCents(entry["amount"].(string))
			require.NoError(t, err)
			sum += cents
		}
	}

	resp3, parsed3 := app.do(t, http.MethodGet, "/api/v1/vouchers/"+voucherID, token, nil)
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	balance, err := parseCents(dataOf(t, parsed3)["balance"].(string))
	require.NoError(t, err)

	assert.Equal(t, int64(5000)+sum, balance, "balance must reconcile with the ledger")
	assert.GreaterOrEqual(t, balance, int64(0))
	assert.LessOrEqual(t, balance, int64(5000))
}

// TestConcurrentVoucherDeleteVsPurchase races voucher deletion against spends.
// Either the spend lands before the cascade removes it, or the voucher is
// already gone; nothing resurrects afterwards.
func TestConcurrentVoucherDeleteVsPurchase(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "delrace@example.com")
	voucherID := createVoucher(t, app, token, "Racing Card", "30.00")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		req, _ := http.NewRequest(http.MethodDelete,
			app.server.URL+"/api/v1/vouchers/"+voucherID, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r, err := http.DefaultClient.Do(req)
		if err == nil {
			r.Body.Close()
		}
	}()
	go func() {
		defer wg.Done()
		req, _ := http.NewRequest(http.MethodPost,
			app.server.URL+"/api/v1/vouchers/"+voucherID+"/transactions",
			bytes.NewBufferString(`{"amount":"5.00"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		r, err := http.DefaultClient.Do(req)
		if err == nil {
			r.Body.Close()
		}
	}()
	wg.Wait()

	resp, _ := app.do(t, http.MethodGet, "/api/v1/vouchers/"+voucherID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// parseCents converts a signed decimal money string back to cents.
func parseCents(s string) (int64, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var dollars, cents int64
	if _, err := fmt.Sscanf(s, "%d.%02d", &dollars, &cents); err != nil {
		return 0, err
	}
	total := dollars*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}
