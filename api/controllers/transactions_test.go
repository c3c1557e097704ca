package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamtips/streamtips-backend/internal/transactions"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	"github.com/streamtips/streamtips-backend/pkg/enums"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

type fakeTxnService struct {
	txns  []models.Transaction
	stats transactions.Stats

	byPaymentID map[string]*models.Transaction
	listErr     error
}

func (f *fakeTxnService) CreatePending(ctx context.Context, input transactions.CreatePendingInput) (*models.Transaction, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not used")
}

func (f *fakeTxnService) TransitionStatus(ctx context.Context, paymentIntentID string, target enums.TransactionStatus) (*models.Transaction, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not used")
}

func (f *fakeTxnService) ReconcileWithActualFee(ctx context.Context, paymentIntentID string, actualFeeCents int64) (*models.Transaction, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not used")
}

func (f *fakeTxnService) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	if txn, ok := f.byPaymentID[paymentIntentID]; ok {
		return txn, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
}

func (f *fakeTxnService) List(ctx context.Context) ([]models.Transaction, transactions.Stats, error) {
	if f.listErr != nil {
		return nil, transactions.Stats{}, f.listErr
	}
	return f.txns, f.stats, nil
}

func (f *fakeTxnService) ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error) {
	return nil, nil
}

func sampleTransaction() models.Transaction {
	fee := int64(60)
	return models.Transaction{
		ID:                          uuid.New(),
		PayeeID:                     "payee_1",
		PayeeName:                   "GamingPro",
		StripePaymentIntentID:       "pi_123",
		GrossCents:                  1000,
		FeeEstimatedCents:           59,
		NetEstimatedCents:           941,
		PlatformShareEstimatedCents: 188,
		PayeeShareEstimatedCents:    753,
		FeeActualCents:              &fee,
		DisplayPlatformShareCents:   188,
		DisplayPayeeShareCents:      752,
		Status:                      enums.TransactionStatusSucceeded,
		Currency:                    "usd",
		OccurredAt:                  time.Now().UTC(),
	}
}

func TestTransactionList(t *testing.T) {
	svc := &fakeTxnService{
		txns: []models.Transaction{sampleTransaction()},
		stats: transactions.Stats{
			Count:              1,
			GrossCents:         1000,
			PlatformShareCents: 188,
			PayeeShareCents:    752,
			FeeCents:           60,
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	TransactionList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Transactions []map[string]any `json:"transactions"`
			Stats        map[string]any   `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Transactions, 1)

	first := body.Data.Transactions[0]
	assert.Equal(t, "pi_123", first["payment_id"])
	assert.Equal(t, "succeeded", first["status"])
	assert.Equal(t, float64(1000), first["gross_cents"])
	assert.Equal(t, float64(60), first["fee_actual_cents"])
	assert.Equal(t, float64(752), first["display_payee_share_cents"])
	assert.Equal(t, float64(188), body.Data.Stats["platform_share_cents"])
}

func TestTransactionList_Empty(t *testing.T) {
	svc := &fakeTxnService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	TransactionList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Transactions []map[string]any `json:"transactions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Data.Transactions)
	assert.Empty(t, body.Data.Transactions)
}

func TestTransactionList_ServiceFailure(t *testing.T) {
	svc := &fakeTxnService{listErr: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	TransactionList(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
