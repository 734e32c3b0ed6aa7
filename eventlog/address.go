// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eventlog

import "strings"

const minAddressLen = 21

// IsAddress reports whether s has the shape of a Massa user (AU) or
// contract (AS) address.
func IsAddress(s string) bool {
	if len(s) < minAddressLen {
		return false
	}
	if !strings.HasPrefix(s, "AU") && !strings.HasPrefix(s, "AS") {
		return false
	}
	for _, c := range s[2:] {
		if !isBase58(c) {
			return false
		}
	}
	return true
}

func isBase58(c rune) bool {
	switch {
	case c >= '1' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return c != 'I' && c != 'O'
	case c >= 'a' && c <= 'z':
		return c != 'l'
	}
	return false
}
