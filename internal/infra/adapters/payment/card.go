package payment

import (
	"strconv"
	"strings"
	"time"
)

// ExpiryStatus is the outcome of an expiry check.
type ExpiryStatus int

const (
	ExpiryOK ExpiryStatus = iota
	ExpiryInvalidMonth
	ExpiryExpired
)

var cardSeparators = strings.NewReplacer(" ", "", "-", "", "\t", "")

// NormalizeCardNumber strips spaces and dashes.
func NormalizeCardNumber(s string) string {
	return cardSeparators.Replace(s)
}

// IsValidCardFormat reports whether n is 13..19 digits once separators are
// removed. No Luhn check: the sandbox accepts any well-formed number.
func IsValidCardFormat(n string) bool {
	n = NormalizeCardNumber(n)
	if len(n) < 13 || len(n) > 19 {
		return false
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateExpiry checks month/year against now. Two-digit years are read as
// 20YY. A card is valid through the whole of its expiry month.
func ValidateExpiry(month, year string, now time.Time) ExpiryStatus {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return ExpiryInvalidMonth
	}
	y := expiryYear(year)

	nowY, nowM := now.Year(), int(now.Month())
	if y < nowY || (y == nowY && m < nowM) {
		return ExpiryExpired
	}
	return ExpiryOK
}

func expiryYear(year string) int {
	year = strings.TrimSpace(year)
	if len(year) <= 2 {
		year = "20" + year
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return y
}

// IsValidCVV accepts 3 or 4 characters.
func IsValidCVV(cvv string) bool {
	return len(cvv) >= 3 && len(cvv) <= 4
}

func lastFour(n string) string {
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}
