// Package coupon generates human-scannable coupon codes. A code encodes the
// template category and round number for manual lookup, plus a random suffix:
//
//	FO-R3-K8ZQ2M1X
//
// Generation never fails and never checks for collisions; uniqueness is
// enforced by the allocation store's constraint, with the caller regenerating
// on conflict.
package coupon

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	suffixLen      = 8
	suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generate builds a code from the coupon template type and round number.
// The prefix is the first two characters of the type, so it must be cut on
// rune boundaries; template types are not guaranteed to be ASCII.
func Generate(couponType string, roundNumber int) string {
	prefix := []rune(strings.ToUpper(couponType))
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return fmt.Sprintf("%s-R%d-%s", string(prefix), roundNumber, randomSuffix())
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// nothing sensible to do but stop.
		panic(fmt.Sprintf("coupon: read random: %v", err))
	}
	out := make([]byte, suffixLen)
	for i, b := range buf {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out)
}
