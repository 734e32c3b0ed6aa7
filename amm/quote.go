// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package amm

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultSpreadBps is the pool fee, 2.5%
const DefaultSpreadBps = 250

const bpsDenominator = 10_000

var (
	ErrEmptyPool       = errors.New("pool has no liquidity")
	ErrZeroInput       = errors.New("input amount must be positive")
	ErrInvalidSpread   = errors.New("spread must be in [0, 10000) basis points")
	ErrInsufficientOut = errors.New("requested output exceeds pool reserve")
)

func checkQuote(inReserve, outReserve, amount uint64, spreadBps int64) error {
	if inReserve == 0 || outReserve == 0 {
		return ErrEmptyPool
	}
	if amount == 0 {
		return ErrZeroInput
	}
	if spreadBps < 0 || spreadBps >= bpsDenominator {
		return ErrInvalidSpread
	}
	return nil
}

// Quote prices a constant-product swap on integer base units:
//
//	out = outReserve * in * (1 - spread) / (inReserve + in * (1 - spread))
//
// The result is rounded down.
func Quote(inReserve, outReserve, input uint64, spreadBps int64) (uint64, error) {
	if err := checkQuote(inReserve, outReserve, input, spreadBps); err != nil {
		return 0, err
	}
	keep := big.NewInt(bpsDenominator - spreadBps)
	effIn := new(big.Int).Mul(new(big.Int).SetUint64(input), keep)

	num := new(big.Int).Mul(new(big.Int).SetUint64(outReserve), effIn)
	den := new(big.Int).Mul(new(big.Int).SetUint64(inReserve), big.NewInt(bpsDenominator))
	den.Add(den, effIn)

	return num.Quo(num, den).Uint64(), nil
}

// RequiredInput is the inverse of Quote: the input needed to receive
// output, rounded up. Quote(RequiredInput(x)) >= x.
func RequiredInput(inReserve, outReserve, output uint64, spreadBps int64) (uint64, error) {
	if err := checkQuote(inReserve, outReserve, output, spreadBps); err != nil {
		return 0, err
	}
	if output >= outReserve {
		return 0, ErrInsufficientOut
	}
	// in = inReserve * out * 10000 / ((outReserve - out) * (10000 - spread))
	num := new(big.Int).Mul(new(big.Int).SetUint64(inReserve), new(big.Int).SetUint64(output))
	num.Mul(num, big.NewInt(bpsDenominator))
	den := new(big.Int).SetUint64(outReserve - output)
	den.Mul(den, big.NewInt(bpsDenominator-spreadBps))

	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// QuoteDecimal runs the same formula on decimal amounts, for display
func QuoteDecimal(inReserve, outReserve, input decimal.Decimal, spreadBps int64) (decimal.Decimal, error) {
	if !inReserve.IsPositive() || !outReserve.IsPositive() {
		return decimal.Zero, ErrEmptyPool
	}
	if !input.IsPositive() {
		return decimal.Zero, ErrZeroInput
	}
	if spreadBps < 0 || spreadBps >= bpsDenominator {
		return decimal.Zero, ErrInvalidSpread
	}
	keep := decimal.New(bpsDenominator-spreadBps, -4)
	effIn := input.Mul(keep)
	return outReserve.Mul(effIn).Div(inReserve.Add(effIn)), nil
}

// UnitRate is what one whole unit of input buys at the given reserves,
// spread included, truncated to the output's decimals
func UnitRate(inReserve, outReserve uint64, inDecimals, outDecimals uint8, spreadBps int64) (string, error) {
	rate, err := QuoteDecimal(unitsDecimal(inReserve, inDecimals), unitsDecimal(outReserve, outDecimals), decimal.NewFromInt(1), spreadBps)
	if err != nil {
		return "", err
	}
	return rate.Truncate(int32(outDecimals)).String(), nil
}
