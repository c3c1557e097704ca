package transactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/streamtips/streamtips-backend/internal/fees"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/pkg/config"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	"github.com/streamtips/streamtips-backend/pkg/enums"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

type fakeRepository struct {
	byPaymentID map[string]*models.Transaction
	saves       int
	failSave    error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byPaymentID: map[string]*models.Transaction{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, txn *models.Transaction) error {
	cp := *txn
	f.byPaymentID[txn.StripePaymentIntentID] = &cp
	return nil
}

func (f *fakeRepository) Save(ctx context.Context, txn *models.Transaction) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.saves++
	cp := *txn
	f.byPaymentID[txn.StripePaymentIntentID] = &cp
	return nil
}

func (f *fakeRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	txn, ok := f.byPaymentID[paymentIntentID]
	if !ok {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.byPaymentID {
		out = append(out, *txn)
	}
	return out, nil
}

func (f *fakeRepository) ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range f.byPaymentID {
		if txn.PayeeID == payeeID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeRepository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, txn := range f.byPaymentID {
		if txn.Status != enums.TransactionStatusSucceeded {
			continue
		}
		stats.Count++
		stats.GrossCents += txn.GrossCents
		stats.PlatformShareCents += txn.DisplayPlatformShareCents
		stats.PayeeShareCents += txn.DisplayPayeeShareCents
		stats.FeeCents += txn.DisplayFeeCents()
	}
	return stats, nil
}

type fakePayeeRepo struct {
	payees map[string]*models.Payee
}

func (f *fakePayeeRepo) WithTx(tx *gorm.DB) payees.Repository { return f }

func (f *fakePayeeRepo) FindByID(ctx context.Context, id string) (*models.Payee, error) {
	return f.payees[id], nil
}

func (f *fakePayeeRepo) ListAll(ctx context.Context) ([]models.Payee, error) {
	return nil, nil
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()

	calc, err := fees.NewCalculator(config.FeeConfig{
		ProcessorRateBPS:  290,
		ProcessorFixedFee: 30,
		PlatformRateBPS:   2000,
		MinTipCents:       50,
	})
	require.NoError(t, err)

	repo := newFakeRepository()
	svc, err := NewService(ServiceParams{
		Repo: repo,
		PayeeRepo: &fakePayeeRepo{payees: map[string]*models.Payee{
			"payee_1": {ID: "payee_1", Name: "GamingPro"},
		}},
		Calculator: calc,
	})
	require.NoError(t, err)
	return svc, repo
}

func createPendingTip(t *testing.T, svc Service) *models.Transaction {
	t.Helper()
	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		PayeeID:         "payee_1",
		PaymentIntentID: "pi_123",
		GrossCents:      1000,
		Currency:        "usd",
		OccurredAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return txn
}

func TestCreatePending(t *testing.T) {
	svc, repo := newTestService(t)

	txn := createPendingTip(t, svc)

	assert.Equal(t, enums.TransactionStatusPending, txn.Status)
	assert.Equal(t, "GamingPro", txn.PayeeName)
	assert.Equal(t, int64(1000), txn.GrossCents)
	assert.Equal(t, int64(59), txn.FeeEstimatedCents)
	assert.Equal(t, int64(941), txn.NetEstimatedCents)
	assert.Equal(t, int64(188), txn.PlatformShareEstimatedCents)
	assert.Equal(t, int64(753), txn.PayeeShareEstimatedCents)
	assert.Equal(t, int64(188), txn.DisplayPlatformShareCents)
	assert.Equal(t, int64(753), txn.DisplayPayeeShareCents)
	assert.Nil(t, txn.FeeActualCents)

	stored, err := repo.FindByPaymentIntentID(context.Background(), "pi_123")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, txn.ID, stored.ID)
}

func TestCreatePending_UnknownPayee(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePending(context.Background(), CreatePendingInput{
		PayeeID:         "payee_missing",
		PaymentIntentID: "pi_1",
		GrossCents:      1000,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreatePending_InvalidAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePending(context.Background(), CreatePendingInput{
		PayeeID:         "payee_1",
		PaymentIntentID: "pi_1",
		GrossCents:      49,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestTransitionStatus_TerminalStatesAbsorb(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	first, err := svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusSucceeded, first.Status)

	// Repeating the identical notification is a reported no-op.
	second, err := svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ID, second.ID)

	// A conflicting target after a terminal state must not change status.
	third, err := svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusSucceeded, third.Status)
}

func TestTransitionStatus_UnknownPaymentID(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.TransitionStatus(context.Background(), "pi_ghost", enums.TransactionStatusSucceeded)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Zero(t, repo.saves, "a missing transaction must not produce a write")
}

func TestTransitionStatus_InvalidTarget(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	_, err := svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatusPending)
	require.Error(t, err)

	_, err = svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatus("exploded"))
	require.Error(t, err)
}

func TestReconcileWithActualFee(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	txn, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 60)
	require.NoError(t, err)

	assert.Equal(t, enums.TransactionStatusSucceeded, txn.Status)
	require.NotNil(t, txn.FeeActualCents)
	assert.Equal(t, int64(60), *txn.FeeActualCents)
	assert.Equal(t, int64(940), *txn.NetActualCents)
	assert.Equal(t, int64(188), *txn.PlatformShareActualCents)
	assert.Equal(t, int64(752), *txn.PayeeShareActualCents)
	assert.Equal(t, int64(188), txn.DisplayPlatformShareCents)
	assert.Equal(t, int64(752), txn.DisplayPayeeShareCents)

	// Estimates are retained untouched for audit.
	assert.Equal(t, int64(59), txn.FeeEstimatedCents)
	assert.Equal(t, int64(753), txn.PayeeShareEstimatedCents)
}

func TestReconcileWithActualFee_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	first, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 60)
	require.NoError(t, err)
	second, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 60)
	require.NoError(t, err)
	assert.Equal(t, *first.FeeActualCents, *second.FeeActualCents)
	assert.Equal(t, first.DisplayPayeeShareCents, second.DisplayPayeeShareCents)

	// A different fee on redelivery wins (last-write-wins policy).
	third, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 75)
	require.NoError(t, err)
	assert.Equal(t, int64(75), *third.FeeActualCents)
	assert.Equal(t, int64(925), *third.NetActualCents)
	assert.Equal(t, int64(185), *third.PlatformShareActualCents)
	assert.Equal(t, int64(740), *third.PayeeShareActualCents)
}

func TestReconcileWithActualFee_UnknownPaymentID(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.ReconcileWithActualFee(context.Background(), "pi_ghost", 60)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Zero(t, repo.saves)
}

func TestReconcileWithActualFee_RejectsFeeAboveGross(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	_, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 1001)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestList_AggregatesDisplayShares(t *testing.T) {
	svc, _ := newTestService(t)
	createPendingTip(t, svc)

	second, err := svc.CreatePending(context.Background(), CreatePendingInput{
		PayeeID:         "payee_1",
		PaymentIntentID: "pi_456",
		GrossCents:      2000,
		Currency:        "usd",
	})
	require.NoError(t, err)

	// One reconciled, one succeeded on estimates only.
	reconciled, err := svc.ReconcileWithActualFee(context.Background(), "pi_123", 60)
	require.NoError(t, err)
	estimated, err := svc.TransitionStatus(context.Background(), second.StripePaymentIntentID, enums.TransactionStatusSucceeded)
	require.NoError(t, err)

	_, stats, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, int64(3000), stats.GrossCents)
	assert.Equal(t, reconciled.DisplayPlatformShareCents+estimated.DisplayPlatformShareCents, stats.PlatformShareCents)
	assert.Equal(t, reconciled.DisplayPayeeShareCents+estimated.DisplayPayeeShareCents, stats.PayeeShareCents)
	assert.Equal(t, reconciled.DisplayFeeCents()+estimated.DisplayFeeCents(), stats.FeeCents)
}

func TestServicePersistenceFailureSurfacesDependencyError(t *testing.T) {
	svc, repo := newTestService(t)
	createPendingTip(t, svc)
	repo.failSave = errors.New("disk on fire")

	_, err := svc.TransitionStatus(context.Background(), "pi_123", enums.TransactionStatusFailed)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}
