package enums

import "fmt"

// TransactionStatus tracks a tip through settlement. Pending is the sole
// initial state; the other three are terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCanceled  TransactionStatus = "canceled"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusSucceeded,
	TransactionStatusFailed,
	TransactionStatusCanceled,
}

// IsValid reports whether the value matches the canonical status enum.
func (t TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted out of
// this status.
func (t TransactionStatus) IsTerminal() bool {
	switch t {
	case TransactionStatusSucceeded, TransactionStatusFailed, TransactionStatusCanceled:
		return true
	default:
		return false
	}
}

// ParseTransactionStatus converts the raw string to TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
