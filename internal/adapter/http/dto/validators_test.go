package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Email:       "  alice@example.com  ",
		Password:    "  pass1234  ",
		DisplayName: " Alice ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "Alice", req.DisplayName)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	desc := "coffee <script>alert('x')</script> run"
	req := PurchaseRequest{
		Amount:      "12.50",
		Description: desc,
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Description, "&lt;script&gt;")
	assert.NotContains(t, req.Description, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	date := "  2026-01-05  "
	req := PurchaseRequest{
		Amount:       "5.00",
		Description:  "lunch",
		PurchaseDate: &date,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "2026-01-05", *req.PurchaseDate)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := UpdateVoucherRequest{
		Name:  nil,
		Notes: nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.Name)
	assert.Nil(t, req.Notes)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"0f4d2c6a-9a3e-4d2b-8f1c-2a7b1d9e0c5f",
		"cat_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"cat 001",     // space
		"cat<001>",    // angle brackets
		"cat;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"cat\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestSanitizeStruct_OfferForSaleRequest(t *testing.T) {
	req := OfferForSaleRequest{
		SalePrice:    "  40.00  ",
		ContactPhone: " +15551234 ",
		ContactEmail: "  seller@example.com  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "40.00", req.SalePrice)
	assert.Equal(t, "+15551234", req.ContactPhone)
	assert.Equal(t, "seller@example.com", req.ContactEmail)
}
