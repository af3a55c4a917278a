// Package ordernum formats the human-facing order numbers printed on
// receipts and read out over the phone.
package ordernum

import (
	"fmt"
	"regexp"
	"time"
)

var pattern = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)

// Format builds an order number from the creation time and the row id,
// e.g. ORD-20260831-000042.
func Format(createdAt time.Time, id int64) string {
	return fmt.Sprintf("ORD-%s-%06d", createdAt.Format("20060102"), id)
}

// Valid reports whether the value looks like a well-formed order number.
func Valid(value string) bool {
	return pattern.MatchString(value)
}
