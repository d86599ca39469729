package domain

import (
	"strings"
	"time"
)

// OrderNumber is the exchange-assigned identifier of a P2P trade
type OrderNumber string

const maxOrderNumberLength = 64

func NewOrderNumber(value string) (OrderNumber, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", NewInvalidOrderNumberError(value, "must not be empty")
	}
	if len(v) > maxOrderNumberLength {
		return "", NewInvalidOrderNumberError(value, "too long")
	}
	for _, r := range v {
		if !isAlphanumeric(r) && r != '-' && r != '_' {
			return "", NewInvalidOrderNumberError(value, "must be alphanumeric")
		}
	}
	return OrderNumber(v), nil
}

func (n OrderNumber) String() string { return string(n) }

// TaxID is an 11-digit CUIT/CUIL with a valid mod-11 check digit
type TaxID struct {
	value string
}

var taxIDWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// NewTaxID accepts digits with optional hyphens or spaces.
func NewTaxID(value string) (TaxID, error) {
	digits := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(value))
	if len(digits) != 11 {
		return TaxID{}, NewInvalidTaxIDError(value, "must have 11 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return TaxID{}, NewInvalidTaxIDError(value, "must contain only digits")
		}
	}
	if int(digits[10]-'0') != TaxIDCheckDigit(digits[:10]) {
		return TaxID{}, NewInvalidTaxIDError(value, "check digit mismatch")
	}
	return TaxID{value: digits}, nil
}

// TaxIDCheckDigit computes the expected 11th digit for a 10-digit prefix.
// The prefix must already be validated as digits.
func TaxIDCheckDigit(prefix string) int {
	sum := 0
	for i, w := range taxIDWeights {
		sum += int(prefix[i]-'0') * w
	}
	switch rem := sum % 11; rem {
	case 0:
		return 0
	case 1:
		return 9
	default:
		return 11 - rem
	}
}

func (t TaxID) String() string { return t.value }
func (t TaxID) IsZero() bool   { return t.value == "" }

// Formatted renders XX-XXXXXXXX-X
func (t TaxID) Formatted() string {
	if t.value == "" {
		return ""
	}
	return t.value[:2] + "-" + t.value[2:10] + "-" + t.value[10:]
}

// AuthorizationCode is the CAE returned by the authority. The expiration is
// optional; whether the code is still usable is derived from it.
type AuthorizationCode struct {
	code      string
	expiresOn time.Time
}

const AuthorizationCodeLength = 14

func NewAuthorizationCode(code string, expiresOn time.Time) (AuthorizationCode, error) {
	c := strings.TrimSpace(code)
	if c == "" {
		return AuthorizationCode{}, NewInvalidAuthorizationCodeError(code, "must not be empty")
	}
	if len(c) > AuthorizationCodeLength {
		return AuthorizationCode{}, NewInvalidAuthorizationCodeError(code, "must have at most 14 digits")
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return AuthorizationCode{}, NewInvalidAuthorizationCodeError(code, "must contain only digits")
		}
	}
	c = strings.Repeat("0", AuthorizationCodeLength-len(c)) + c

	var exp time.Time
	if !expiresOn.IsZero() {
		exp = CalendarDate(expiresOn)
	}
	return AuthorizationCode{code: c, expiresOn: exp}, nil
}

func (a AuthorizationCode) String() string { return a.code }
func (a AuthorizationCode) IsZero() bool   { return a.code == "" }

// ExpiresOn returns the expiration day, zero when none was provided.
func (a AuthorizationCode) ExpiresOn() time.Time { return a.expiresOn }

// IsExpired is true once now is past the end of the expiration day.
func (a AuthorizationCode) IsExpired(now time.Time) bool {
	if a.expiresOn.IsZero() {
		return false
	}
	return CalendarDate(now).After(a.expiresOn)
}

func (a AuthorizationCode) IsUsable(now time.Time) bool {
	return !a.IsZero() && !a.IsExpired(now)
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
