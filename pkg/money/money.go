// Package money provides fixed-point helpers for monetary values stored as
// int64 cents. Keeping amounts integral avoids IEEE-754 rounding drift in the
// ledger sums; formatting to two decimals happens only at the display edge.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders cents as a two-decimal string, e.g. 1250 -> "12.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Parse converts a decimal string such as "12.50", "12.5" or "12" into cents.
// At most two fractional digits are accepted.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("amount %q has no digits", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}

	cents := w*100 + f
	if negative {
		cents = -cents
	}
	return cents, nil
}
