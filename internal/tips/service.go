package tips

import (
	"context"
	"strconv"
	"time"

	"github.com/streamtips/streamtips-backend/internal/fees"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/internal/transactions"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
	pkgstripe "github.com/streamtips/streamtips-backend/pkg/stripe"
)

// Service starts a tip: it opens a PaymentIntent with the processor and
// records the pending transaction before any money moves.
type Service interface {
	CreateTip(ctx context.Context, input CreateTipInput) (*CreateTipResult, error)
}

type CreateTipInput struct {
	PayeeID       string
	AmountCents   int64
	CustomerEmail *string
}

// CreateTipResult carries the client secret the browser needs to collect
// the card, plus the freshly created pending transaction.
type CreateTipResult struct {
	ClientSecret string
	Transaction  *models.Transaction
}

type ServiceParams struct {
	Transactions transactions.Service
	Payees       payees.Service
	Calculator   *fees.Calculator
	Stripe       pkgstripe.PaymentIntentClient
	Currency     string
	Logger       *logger.Logger
}

type service struct {
	transactions transactions.Service
	payees       payees.Service
	calc         *fees.Calculator
	stripe       pkgstripe.PaymentIntentClient
	currency     string
	logg         *logger.Logger
}

// NewService wires the tip-creation orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction service required")
	}
	if params.Payees == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payee service required")
	}
	if params.Calculator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee calculator required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	return &service{
		transactions: params.Transactions,
		payees:       params.Payees,
		calc:         params.Calculator,
		stripe:       params.Stripe,
		currency:     currency,
		logg:         params.Logger,
	}, nil
}

func (s *service) CreateTip(ctx context.Context, input CreateTipInput) (*CreateTipResult, error) {
	payee, err := s.payees.Get(ctx, input.PayeeID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.calc.Estimate(input.AmountCents)
	if err != nil {
		return nil, err
	}

	intent, err := s.stripe.CreatePaymentIntent(ctx, pkgstripe.CreateIntentInput{
		AmountCents: input.AmountCents,
		Currency:    s.currency,
		Metadata: map[string]string{
			"payee_id":                 payee.ID,
			"payee_name":               payee.Name,
			"fee_estimated":            strconv.FormatInt(estimate.FeeCents, 10),
			"net_estimated":            strconv.FormatInt(estimate.NetCents, 10),
			"platform_share_estimated": strconv.FormatInt(estimate.PlatformShareCents, 10),
			"payee_share_estimated":    strconv.FormatInt(estimate.PayeeShareCents, 10),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	txn, err := s.transactions.CreatePending(ctx, transactions.CreatePendingInput{
		PayeeID:         payee.ID,
		PaymentIntentID: intent.ID,
		GrossCents:      input.AmountCents,
		Currency:        s.currency,
		CustomerEmail:   input.CustomerEmail,
		OccurredAt:      time.Now().UTC(),
	})
	if err != nil {
		// The intent exists at the processor but has no local record; it
		// will never be confirmed client-side because creation failed, so
		// log for follow-up and surface the failure.
		if s.logg != nil {
			lctx := s.logg.WithPaymentID(ctx, intent.ID)
			s.logg.Error(lctx, "pending transaction not persisted for created intent", err)
		}
		return nil, err
	}

	return &CreateTipResult{
		ClientSecret: intent.ClientSecret,
		Transaction:  txn,
	}, nil
}
