package main

import (
	"math"

	"github.com/iov-one/multisafe/errors"
	"github.com/shopspring/decimal"
)

// unitDecimals is the number of decimal places of the smallest unit.
const unitDecimals = 8

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// parseAmount converts a human readable amount, for example "1.25", into
// units.
func parseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "amount %q", s)
	}
	if d.IsNegative() {
		return 0, errors.Wrapf(errors.ErrAmount, "negative amount %s", s)
	}
	units := d.Shift(unitDecimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, errors.Wrapf(errors.ErrAmount, "more than %d decimal places in %s", unitDecimals, s)
	}
	if units.GreaterThan(maxUnits) {
		return 0, errors.Wrapf(errors.ErrOverflow, "amount %s", s)
	}
	return units.IntPart(), nil
}

// formatAmount is the reverse of parseAmount.
func formatAmount(units int64) string {
	return decimal.New(units, -unitDecimals).String()
}
