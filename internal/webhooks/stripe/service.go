package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/streamtips/streamtips-backend/internal/transactions"
	"github.com/streamtips/streamtips-backend/pkg/enums"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
	"github.com/streamtips/streamtips-backend/pkg/metrics"
	pkgstripe "github.com/streamtips/streamtips-backend/pkg/stripe"
)

type ServiceParams struct {
	Transactions transactions.Service
	FeeLookup    pkgstripe.FeeLookupClient
	Metrics      *metrics.WebhookMetrics
	Logger       *logger.Logger
}

// Service maps authenticated Stripe settlement events onto transaction
// lifecycle transitions. Delivery is at-least-once and may be out of
// order, so every path here is idempotent and internal failures are
// swallowed after logging: the sender only needs an acknowledgment, and
// a non-2xx would trigger a redelivery storm that cannot fix a broken
// record anyway.
type Service struct {
	transactions transactions.Service
	feeLookup    pkgstripe.FeeLookupClient
	metrics      *metrics.WebhookMetrics
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction service required")
	}
	if params.FeeLookup == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee lookup client required")
	}
	return &Service{
		transactions: params.Transactions,
		feeLookup:    params.FeeLookup,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.handleSucceeded(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.handleTransition(ctx, event, enums.TransactionStatusFailed)
	case stripe.EventTypePaymentIntentCanceled:
		return s.handleTransition(ctx, event, enums.TransactionStatusCanceled)
	default:
		// Unrecognized event kinds are accepted and ignored so new
		// processor event types never break the webhook.
		s.metrics.IncEvent(string(event.Type), metrics.OutcomeIgnored)
		return nil
	}
}

func (s *Service) handleSucceeded(ctx context.Context, event *stripe.Event) error {
	intent, err := s.decodeIntent(ctx, event)
	if err != nil || intent == nil {
		return err
	}
	ctx = s.withPaymentID(ctx, intent.ID)

	actualFee, feeErr := s.lookupActualFee(ctx, intent)
	if feeErr != nil || actualFee <= 0 {
		if feeErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "actual fee lookup failed, falling back to estimates")
		}
		return s.transition(ctx, event, intent.ID, enums.TransactionStatusSucceeded, metrics.OutcomeStatusOnly)
	}

	if _, err := s.transactions.ReconcileWithActualFee(ctx, intent.ID, actualFee); err != nil {
		return s.absorb(ctx, event, intent.ID, err)
	}
	s.metrics.IncEvent(string(event.Type), metrics.OutcomeReconciled)
	return nil
}

func (s *Service) handleTransition(ctx context.Context, event *stripe.Event, target enums.TransactionStatus) error {
	intent, err := s.decodeIntent(ctx, event)
	if err != nil || intent == nil {
		return err
	}
	ctx = s.withPaymentID(ctx, intent.ID)
	return s.transition(ctx, event, intent.ID, target, metrics.OutcomeStatusOnly)
}

func (s *Service) transition(ctx context.Context, event *stripe.Event, paymentID string, target enums.TransactionStatus, outcome string) error {
	if _, err := s.transactions.TransitionStatus(ctx, paymentID, target); err != nil {
		return s.absorb(ctx, event, paymentID, err)
	}
	s.metrics.IncEvent(string(event.Type), outcome)
	return nil
}

// absorb converts lifecycle failures into an acknowledgment. A missing
// transaction means the settlement referenced a payment this system never
// initiated; it is never fabricated here.
func (s *Service) absorb(ctx context.Context, event *stripe.Event, paymentID string, err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		if s.logg != nil {
			s.logg.Warn(ctx, "settlement event references unknown transaction")
		}
		s.metrics.IncEvent(string(event.Type), metrics.OutcomeOrphaned)
		return nil
	}
	if s.logg != nil {
		s.logg.Error(ctx, "settlement event not applied", err)
	}
	s.metrics.IncEvent(string(event.Type), metrics.OutcomeInternalError)
	return nil
}

func (s *Service) decodeIntent(ctx context.Context, event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "decode payment intent event", err)
		}
		s.metrics.IncEvent(string(event.Type), metrics.OutcomeInternalError)
		return nil, nil
	}
	return &intent, nil
}

// lookupActualFee chases intent -> charge -> balance transaction to find
// the processor's authoritative fee.
func (s *Service) lookupActualFee(ctx context.Context, intent *stripe.PaymentIntent) (int64, error) {
	if intent.LatestCharge == nil || intent.LatestCharge.ID == "" {
		return 0, nil
	}

	charge, err := s.feeLookup.GetCharge(ctx, intent.LatestCharge.ID)
	if err != nil {
		return 0, err
	}
	if charge == nil || charge.BalanceTransaction == nil || charge.BalanceTransaction.ID == "" {
		return 0, nil
	}

	balanceTxn, err := s.feeLookup.GetBalanceTransaction(ctx, charge.BalanceTransaction.ID)
	if err != nil {
		return 0, err
	}
	if balanceTxn == nil {
		return 0, nil
	}
	return balanceTxn.Fee, nil
}

func (s *Service) withPaymentID(ctx context.Context, paymentID string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithPaymentID(ctx, paymentID)
}
