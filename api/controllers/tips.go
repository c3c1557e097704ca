package controllers

import (
	"net/http"

	"github.com/streamtips/streamtips-backend/api/responses"
	"github.com/streamtips/streamtips-backend/api/validators"
	"github.com/streamtips/streamtips-backend/internal/tips"
	"github.com/streamtips/streamtips-backend/internal/transactions"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

type tipCreateRequest struct {
	PayeeID       string `json:"payeeId" validate:"required"`
	AmountCents   int64  `json:"amountCents" validate:"required,gt=0"`
	CustomerEmail string `json:"customerEmail,omitempty" validate:"omitempty,email"`
}

type tipCreateResponse struct {
	ClientSecret  string `json:"clientSecret"`
	TransactionID string `json:"transactionId"`
}

type tipStatusResponse struct {
	Status      string           `json:"status"`
	Transaction tipStatusSummary `json:"transaction"`
}

type tipStatusSummary struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amountCents"`
	PayeeName   string `json:"payeeName"`
}

// TipCreate opens a payment intent and records the pending transaction.
func TipCreate(svc tips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tip service unavailable"))
			return
		}

		var payload tipCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var email *string
		if payload.CustomerEmail != "" {
			email = &payload.CustomerEmail
		}

		result, err := svc.CreateTip(r.Context(), tips.CreateTipInput{
			PayeeID:       payload.PayeeID,
			AmountCents:   payload.AmountCents,
			CustomerEmail: email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tipCreateResponse{
			ClientSecret:  result.ClientSecret,
			TransactionID: result.Transaction.ID.String(),
		})
	}
}

// TipStatus reports the current state of a tip by payment intent id.
func TipStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		paymentID, err := validators.RequireQueryString(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.GetByPaymentIntentID(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tipStatusResponse{
			Status: string(txn.Status),
			Transaction: tipStatusSummary{
				ID:          txn.ID.String(),
				AmountCents: txn.GrossCents,
				PayeeName:   txn.PayeeName,
			},
		})
	}
}
