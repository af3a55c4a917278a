package pixgateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ValidateSignature checks the webhook HMAC. Callers treat a failure as
// advisory: the delivery is still reconciled against the provider, so a
// rotated secret degrades to a warning instead of dropped payments.
func ValidateSignature(secret, payload, signature string) bool {
	if strings.TrimSpace(secret) == "" {
		return true
	}
	if strings.TrimSpace(signature) == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(signature, "sha256=")))
}
