// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package amm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the number of fractional digits of MASSA and of the
// poll token
const DefaultDecimals = 9

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more fractional digits than the token")
	ErrOverflow      = errors.New("amount does not fit in base units")
)

// ToBaseUnits converts a human decimal amount such as "1.5" into integer
// base units (1.5 with 9 decimals is 1500000000). No floating point is
// involved.
func ToBaseUnits(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	if -d.Exponent() > int32(decimals) && !d.Equal(d.Truncate(int32(decimals))) {
		return 0, fmt.Errorf("%w: %q allows %d", ErrTooPrecise, amount, decimals)
	}
	units := d.Shift(int32(decimals)).BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, amount)
	}
	return units.Uint64(), nil
}

// FromBaseUnits renders base units as a decimal string with trailing
// zeros removed
func FromBaseUnits(units uint64, decimals uint8) string {
	return unitsDecimal(units, decimals).String()
}

func unitsDecimal(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// MustBaseUnits is ToBaseUnits for constants known to be valid
func MustBaseUnits(amount string, decimals uint8) uint64 {
	v, err := ToBaseUnits(amount, decimals)
	if err != nil {
		panic(err)
	}
	return v
}
