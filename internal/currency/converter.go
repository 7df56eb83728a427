package currency

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRate = errors.New("invalid exchange rate")
	ErrAmountRange = errors.New("converted amount out of range")
)

// ConvertMinor converts an amount of integer minor units into the host
// currency by dividing by rate, where rate is the number of source currency
// units per one host currency unit as recorded on the transaction.
// Rounds half away from zero.
func ConvertMinor(amount int64, rate decimal.Decimal) (int64, error) {
	if !rate.IsPositive() {
		return 0, ErrInvalidRate
	}
	v := decimal.NewFromInt(amount).DivRound(rate, 0)
	if v.IsNegative() || !v.BigInt().IsInt64() {
		return 0, ErrAmountRange
	}
	return v.IntPart(), nil
}
