package controllers

import (
	"net/http"
	"time"

	"github.com/streamtips/streamtips-backend/api/responses"
	"github.com/streamtips/streamtips-backend/internal/transactions"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

type transactionResponse struct {
	ID              string `json:"id"`
	PayeeID         string `json:"payee_id"`
	PayeeName       string `json:"payee_name"`
	PaymentIntentID string `json:"payment_id"`

	GrossCents int64  `json:"gross_cents"`
	Status     string `json:"status"`
	Currency   string `json:"currency"`

	FeeEstimatedCents           int64 `json:"fee_estimated_cents"`
	NetEstimatedCents           int64 `json:"net_estimated_cents"`
	PlatformShareEstimatedCents int64 `json:"platform_share_estimated_cents"`
	PayeeShareEstimatedCents    int64 `json:"payee_share_estimated_cents"`

	FeeActualCents           *int64 `json:"fee_actual_cents,omitempty"`
	NetActualCents           *int64 `json:"net_actual_cents,omitempty"`
	PlatformShareActualCents *int64 `json:"platform_share_actual_cents,omitempty"`
	PayeeShareActualCents    *int64 `json:"payee_share_actual_cents,omitempty"`

	DisplayPlatformShareCents int64 `json:"display_platform_share_cents"`
	DisplayPayeeShareCents    int64 `json:"display_payee_share_cents"`

	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Stats        transactions.Stats    `json:"stats"`
}

// TransactionList returns every recorded tip plus platform aggregates over
// succeeded tips.
func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		txns, stats, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := transactionListResponse{
			Transactions: make([]transactionResponse, 0, len(txns)),
			Stats:        stats,
		}
		for _, txn := range txns {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(txn))
		}
		responses.WriteSuccess(w, resp)
	}
}

func toTransactionResponse(txn models.Transaction) transactionResponse {
	return transactionResponse{
		ID:                          txn.ID.String(),
		PayeeID:                     txn.PayeeID,
		PayeeName:                   txn.PayeeName,
		PaymentIntentID:             txn.StripePaymentIntentID,
		GrossCents:                  txn.GrossCents,
		Status:                      string(txn.Status),
		Currency:                    txn.Currency,
		FeeEstimatedCents:           txn.FeeEstimatedCents,
		NetEstimatedCents:           txn.NetEstimatedCents,
		PlatformShareEstimatedCents: txn.PlatformShareEstimatedCents,
		PayeeShareEstimatedCents:    txn.PayeeShareEstimatedCents,
		FeeActualCents:              txn.FeeActualCents,
		NetActualCents:              txn.NetActualCents,
		PlatformShareActualCents:    txn.PlatformShareActualCents,
		PayeeShareActualCents:       txn.PayeeShareActualCents,
		DisplayPlatformShareCents:   txn.DisplayPlatformShareCents,
		DisplayPayeeShareCents:      txn.DisplayPayeeShareCents,
		OccurredAt:                  txn.OccurredAt.UTC(),
		CreatedAt:                   txn.CreatedAt.UTC(),
		UpdatedAt:                   txn.UpdatedAt.UTC(),
	}
}
