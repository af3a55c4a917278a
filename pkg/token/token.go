// Package token generates the short numeric codes couriers exchange with
// customers to confirm a delivery.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// Length is the number of digits in a delivery token.
const Length = 6

var max = big.NewInt(1_000_000)

// NewDeliveryToken returns a zero-padded numeric token of Length digits.
func NewDeliveryToken() (string, error) {
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating delivery token: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Matches compares a candidate against the stored token in constant time.
func Matches(stored, candidate string) bool {
	if len(stored) != Length || len(candidate) != Length {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}
