package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/streamtips/streamtips-backend/internal/fees"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	"github.com/streamtips/streamtips-backend/pkg/enums"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

// Service owns the transaction lifecycle: creation in pending state,
// terminal status transitions, and fee reconciliation. It holds no state
// between calls; every operation is a load-mutate-store cycle keyed by
// the payment intent id, so the record store stays the single source of
// truth.
type Service interface {
	CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error)
	TransitionStatus(ctx context.Context, paymentIntentID string, target enums.TransactionStatus) (*models.Transaction, error)
	ReconcileWithActualFee(ctx context.Context, paymentIntentID string, actualFeeCents int64) (*models.Transaction, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, Stats, error)
	ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error)
}

// CreatePendingInput captures a tip at initiation time, before the
// processor has confirmed anything.
type CreatePendingInput struct {
	PayeeID         string
	PaymentIntentID string
	GrossCents      int64
	Currency        string
	CustomerEmail   *string
	OccurredAt      time.Time
}

type ServiceParams struct {
	Repo       Repository
	PayeeRepo  payees.Repository
	Calculator *fees.Calculator
	Logger     *logger.Logger
}

type service struct {
	repo      Repository
	payeeRepo payees.Repository
	calc      *fees.Calculator
	logg      *logger.Logger
}

// NewService wires the lifecycle manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction repo required")
	}
	if params.PayeeRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payee repo required")
	}
	if params.Calculator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee calculator required")
	}
	return &service{
		repo:      params.Repo,
		payeeRepo: params.PayeeRepo,
		calc:      params.Calculator,
		logg:      params.Logger,
	}, nil
}

func (s *service) CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error) {
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if input.PayeeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payee id is required")
	}

	payee, err := s.payeeRepo.FindByID(ctx, input.PayeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payee")
	}
	if payee == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payee not found")
	}

	estimate, err := s.calc.Estimate(input.GrossCents)
	if err != nil {
		return nil, err
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	txn := &models.Transaction{
		ID:                          uuid.New(),
		PayeeID:                     payee.ID,
		PayeeName:                   payee.Name,
		StripePaymentIntentID:       input.PaymentIntentID,
		GrossCents:                  input.GrossCents,
		FeeEstimatedCents:           estimate.FeeCents,
		NetEstimatedCents:           estimate.NetCents,
		PlatformShareEstimatedCents: estimate.PlatformShareCents,
		PayeeShareEstimatedCents:    estimate.PayeeShareCents,
		DisplayPlatformShareCents:   estimate.PlatformShareCents,
		DisplayPayeeShareCents:      estimate.PayeeShareCents,
		Status:                      enums.TransactionStatusPending,
		Currency:                    input.Currency,
		CustomerEmail:               input.CustomerEmail,
		OccurredAt:                  occurredAt,
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending transaction")
	}
	return txn, nil
}

func (s *service) TransitionStatus(ctx context.Context, paymentIntentID string, target enums.TransactionStatus) (*models.Transaction, error) {
	if !target.IsValid() || target == enums.TransactionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	txn, err := s.load(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	// Terminal states are absorbing: repeated or conflicting settlement
	// notifications become reported no-ops instead of errors.
	if txn.Status.IsTerminal() {
		if s.logg != nil && txn.Status != target {
			lctx := s.logg.WithPaymentID(ctx, paymentIntentID)
			s.logg.Warn(lctx, "ignoring transition on terminal transaction")
		}
		return txn, nil
	}

	txn.Status = target
	if err := s.repo.Save(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist status transition")
	}
	return txn, nil
}

func (s *service) ReconcileWithActualFee(ctx context.Context, paymentIntentID string, actualFeeCents int64) (*models.Transaction, error) {
	txn, err := s.load(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	actual, err := s.calc.SplitNet(txn.GrossCents, actualFeeCents)
	if err != nil {
		return nil, err
	}

	// Redelivered success events overwrite actuals last-write-wins; a
	// changed fee is worth flagging for reconciliation follow-up.
	if s.logg != nil && txn.FeeActualCents != nil && *txn.FeeActualCents != actualFeeCents {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"payment_id":   paymentIntentID,
			"fee_previous": *txn.FeeActualCents,
			"fee_incoming": actualFeeCents,
		})
		s.logg.Warn(lctx, "overwriting previously reconciled fee")
	}

	fee := actual.FeeCents
	net := actual.NetCents
	platform := actual.PlatformShareCents
	payee := actual.PayeeShareCents

	txn.FeeActualCents = &fee
	txn.NetActualCents = &net
	txn.PlatformShareActualCents = &platform
	txn.PayeeShareActualCents = &payee
	txn.DisplayPlatformShareCents = platform
	txn.DisplayPayeeShareCents = payee
	txn.Status = enums.TransactionStatusSucceeded

	if err := s.repo.Save(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist reconciled transaction")
	}
	return txn, nil
}

func (s *service) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	return s.load(ctx, paymentIntentID)
}

func (s *service) List(ctx context.Context) ([]models.Transaction, Stats, error) {
	txns, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate transaction stats")
	}
	return txns, stats, nil
}

func (s *service) ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error) {
	if payeeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payee id is required")
	}
	txns, err := s.repo.ListByPayee(ctx, payeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payee transactions")
	}
	return txns, nil
}

func (s *service) load(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	txn, err := s.repo.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return txn, nil
}
