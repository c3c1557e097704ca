package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStatus_IsValid(t *testing.T) {
	for _, status := range []TransactionStatus{
		TransactionStatusPending,
		TransactionStatusSucceeded,
		TransactionStatusFailed,
		TransactionStatusCanceled,
	} {
		assert.True(t, status.IsValid(), string(status))
	}

	assert.False(t, TransactionStatus("refunded").IsValid())
	assert.False(t, TransactionStatus("").IsValid())
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.True(t, TransactionStatusSucceeded.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusCanceled.IsTerminal())
}

func TestParseTransactionStatus(t *testing.T) {
	status, err := ParseTransactionStatus("succeeded")
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusSucceeded, status)

	_, err = ParseTransactionStatus("SUCCEEDED")
	require.Error(t, err)

	_, err = ParseTransactionStatus("")
	require.Error(t, err)
}
