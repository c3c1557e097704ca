package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/streamtips/streamtips-backend/api/responses"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
}

type stripeClient interface {
	SigningSecret() string
}

type webhookAck struct {
	Received bool `json:"received"`
}

// StripeWebhook ingests settlement notifications. Signature verification
// happens before any business content is parsed; once an event is
// authenticated the endpoint always acknowledges, because the sender
// retries on non-2xx and a redelivery storm cannot repair an internal
// failure.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature"))
			return
		}

		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil && logg != nil {
				// Guard unavailability must not block settlement; the
				// lifecycle manager tolerates duplicates on its own.
				lctx := logg.WithField(ctx, "event_id", event.ID)
				logg.Warn(lctx, "idempotency guard unavailable, processing anyway")
			}
			if err == nil && alreadyProcessed {
				responses.WriteSuccess(w, webhookAck{Received: true})
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil && logg != nil {
			lctx := logg.WithField(ctx, "event_id", event.ID)
			logg.Error(lctx, "webhook event processing failed", err)
		}

		responses.WriteSuccess(w, webhookAck{Received: true})
	}
}
