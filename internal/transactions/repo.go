package transactions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/streamtips/streamtips-backend/pkg/db/models"
	"github.com/streamtips/streamtips-backend/pkg/enums"
)

// Stats aggregates succeeded transactions using display figures, so
// reconciled rows contribute actuals and unreconciled rows contribute
// estimates.
type Stats struct {
	Count              int64 `json:"count"`
	GrossCents         int64 `json:"gross_cents"`
	PlatformShareCents int64 `json:"platform_share_cents"`
	PayeeShareCents    int64 `json:"payee_share_cents"`
	FeeCents           int64 `json:"fee_cents"`
}

// Repository manages persistence for tip transactions. Writes are
// whole-record saves; callers read-modify-write keyed by the payment
// intent id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	Save(ctx context.Context, txn *models.Transaction) error
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error)
	Stats(ctx context.Context) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) Save(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		First(&txn, "stripe_payment_intent_id = ?", paymentIntentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListByPayee(ctx context.Context, payeeID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("payee_id = ?", payeeID).
		Order("occurred_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(gross_cents), 0) AS gross_cents,
			COALESCE(SUM(display_platform_share_cents), 0) AS platform_share_cents,
			COALESCE(SUM(display_payee_share_cents), 0) AS payee_share_cents,
			COALESCE(SUM(COALESCE(fee_actual_cents, fee_estimated_cents)), 0) AS fee_cents`).
		Where("status = ?", enums.TransactionStatusSucceeded).
		Scan(&stats).Error
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
