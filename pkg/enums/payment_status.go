package enums

import "fmt"

// PaymentStatus reflects the provider-facing state of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string { return string(s) }

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status: %q", value)
	}
	return status, nil
}

// providerStatusMap folds the provider's wider vocabulary onto the internal
// one. Unknown values fall back to pending so a new provider status never
// breaks reconciliation.
var providerStatusMap = map[string]PaymentStatus{
	"approved":     PaymentStatusApproved,
	"pending":      PaymentStatusPending,
	"in_process":   PaymentStatusPending,
	"rejected":     PaymentStatusRejected,
	"cancelled":    PaymentStatusCancelled,
	"refunded":     PaymentStatusRefunded,
	"charged_back": PaymentStatusRefunded,
}

// FromProviderStatus maps a raw provider payment status to the internal enum.
func FromProviderStatus(raw string) PaymentStatus {
	if mapped, ok := providerStatusMap[raw]; ok {
		return mapped
	}
	return PaymentStatusPending
}
