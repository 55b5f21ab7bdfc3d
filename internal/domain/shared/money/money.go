package money

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// DefaultCurrency is used wherever the platform quotes prices.
const DefaultCurrency = "INR"

// Money keeps amounts in whole currency units to avoid floating point issues.
// Sub-unit precision exists only at the payment-gateway boundary.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Units builds a Money in the platform default currency.
func Units(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// Percent computes pct% of the amount rounded to the nearest whole unit.
// Rounding happens exactly once here; callers must not re-round the result.
func (m Money) Percent(pct int64) Money {
	if pct <= 0 || m.Amount <= 0 {
		return Money{Amount: 0, Currency: m.Currency}
	}
	return Money{Amount: (m.Amount*pct + 50) / 100, Currency: m.Currency}
}

// Min returns the smaller of two same-currency amounts.
func Min(a, b Money) Money {
	if a.Amount <= b.Amount {
		return a
	}
	return b
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// ToMinorUnits expresses the amount in the gateway's smallest unit
// (1 unit = 100 minor units). Used only at the gateway boundary call.
func (m Money) ToMinorUnits() int64 {
	return m.Amount * 100
}

// FromMinorUnits converts a gateway-side minor-unit amount back to whole units.
func FromMinorUnits(minor int64, currency string) Money {
	return Money{Amount: minor / 100, Currency: strings.ToUpper(currency)}
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
