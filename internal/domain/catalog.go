package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places a stored amount keeps.
const AmountScale = 2

// MaxAmount is the exclusive upper bound of a stored amount (DECIMAL(12, 2)).
var MaxAmount = decimal.New(1, 10)

var (
	ErrNegativeAmount   = errors.New("must not be negative")
	ErrAmountScale      = errors.New("must have at most 2 decimal places")
	ErrAmountOutOfRange = errors.New("must be less than " + MaxAmount.String())
)

// ValidateAmount checks that d fits the money columns without rounding.
func ValidateAmount(d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return ErrNegativeAmount
	case d.Exponent() < -AmountScale && !d.Equal(d.Truncate(AmountScale)):
		return ErrAmountScale
	case d.GreaterThanOrEqual(MaxAmount):
		return ErrAmountOutOfRange
	default:
		return nil
	}
}

// Product is a sellable item with its current unit price.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Client is the customer an order belongs to.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
