// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eventlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

var (
	balanceLine  = regexp.MustCompile(`^Balance (?:of )?(A[US]\w+): ?(\S+)$`)
	reservesLine = regexp.MustCompile(`^Reserves: ?(\S+)\|(\S+)$`)
)

// Balances returns the latest emitted balance of every address
func (r *Reconstructor) Balances(events []massa.Event) map[string]uint64 {
	balances := map[string]uint64{}
	for _, evt := range ordered(events) {
		m := balanceLine.FindStringSubmatch(strings.TrimSpace(evt.Data))
		if m == nil {
			continue
		}
		amount, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil || !IsAddress(m[1]) {
			r.skip(EntityBalance, evt.Data, fmt.Errorf("%w: balance line", errMalformed))
			continue
		}
		balances[m[1]] = amount
	}
	return balances
}

// Balance returns the latest emitted balance of one address
func (r *Reconstructor) Balance(events []massa.Event, address string) (uint64, error) {
	amount, ok := r.Balances(events)[address]
	if !ok {
		return 0, fmt.Errorf("balance of %s: %w", address, ErrNotFound)
	}
	return amount, nil
}

// Reserves returns the pool reserves from the latest "Reserves:" line
func (r *Reconstructor) Reserves(events []massa.Event) (models.Reserves, error) {
	var (
		latest models.Reserves
		found  bool
	)
	for _, evt := range ordered(events) {
		m := reservesLine.FindStringSubmatch(strings.TrimSpace(evt.Data))
		if m == nil {
			continue
		}
		massaReserve, err1 := strconv.ParseUint(m[1], 10, 64)
		tokenReserve, err2 := strconv.ParseUint(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			r.skip(EntityReserves, evt.Data, fmt.Errorf("%w: reserves line", errMalformed))
			continue
		}
		latest = models.Reserves{Massa: massaReserve, Token: tokenReserve}
		found = true
	}
	if !found {
		return models.Reserves{}, fmt.Errorf("reserves: %w", ErrNotFound)
	}
	return latest, nil
}
