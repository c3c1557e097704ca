package controllers

import (
	"net/http"

	"github.com/streamtips/streamtips-backend/api/responses"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

type payeeResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// PayeeList returns the streamer roster.
func PayeeList(svc payees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payee service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]payeeResponse, 0, len(list))
		for _, payee := range list {
			resp = append(resp, toPayeeResponse(payee))
		}
		responses.WriteSuccess(w, resp)
	}
}

func toPayeeResponse(payee models.Payee) payeeResponse {
	return payeeResponse{
		ID:          payee.ID,
		Name:        payee.Name,
		Description: payee.Description,
		AvatarURL:   payee.AvatarURL,
	}
}
