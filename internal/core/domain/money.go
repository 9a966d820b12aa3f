package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every monetary amount.
const MoneyScale = 2

// MaxAmount bounds a single amount well inside what a BSON Decimal128 stores exactly.
var MaxAmount = decimal.New(1, 15)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrInvalidAmount = errors.New("invalid amount")
var ErrAmountOutOfRange = errors.New("amount out of range")
var ErrBelowMinimum = fmt.Errorf("%w: below minimum", ErrAmountOutOfRange)

// NormalizeAmount checks that amount is strictly positive, at most MaxAmount,
// and carries no more than MoneyScale fractional digits, returning it with a
// fixed scale.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, MaxAmount)
	}
	rounded := amount.Round(MoneyScale)
	if !rounded.Equal(amount) {
		return decimal.Zero, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MoneyScale)
	}
	return rounded, nil
}
