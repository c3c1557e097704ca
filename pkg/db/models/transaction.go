package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/streamtips/streamtips-backend/pkg/enums"
)

// Transaction is the durable record of a single tip. All monetary fields
// are integer cents. The estimated set is written once at creation and
// never touched again; the actual set stays NULL until reconciliation.
// Display fields hold actual-if-present-else-estimated and are recomputed
// on every write so reads never chase fallback chains.
type Transaction struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PayeeID   string    `gorm:"column:payee_id;not null;index"`
	PayeeName string    `gorm:"column:payee_name;not null"`

	StripePaymentIntentID string `gorm:"column:stripe_payment_intent_id;not null;uniqueIndex"`

	GrossCents                  int64 `gorm:"column:gross_cents;not null"`
	FeeEstimatedCents           int64 `gorm:"column:fee_estimated_cents;not null"`
	NetEstimatedCents           int64 `gorm:"column:net_estimated_cents;not null"`
	PlatformShareEstimatedCents int64 `gorm:"column:platform_share_estimated_cents;not null"`
	PayeeShareEstimatedCents    int64 `gorm:"column:payee_share_estimated_cents;not null"`

	FeeActualCents           *int64 `gorm:"column:fee_actual_cents"`
	NetActualCents           *int64 `gorm:"column:net_actual_cents"`
	PlatformShareActualCents *int64 `gorm:"column:platform_share_actual_cents"`
	PayeeShareActualCents    *int64 `gorm:"column:payee_share_actual_cents"`

	DisplayPlatformShareCents int64 `gorm:"column:display_platform_share_cents;not null"`
	DisplayPayeeShareCents    int64 `gorm:"column:display_payee_share_cents;not null"`

	Status        enums.TransactionStatus `gorm:"column:status;not null;default:'pending'"`
	Currency      string                  `gorm:"column:currency;not null;default:'usd'"`
	CustomerEmail *string                 `gorm:"column:customer_email"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayFeeCents returns the authoritative fee when reconciled, the
// estimate otherwise.
func (t *Transaction) DisplayFeeCents() int64 {
	if t.FeeActualCents != nil {
		return *t.FeeActualCents
	}
	return t.FeeEstimatedCents
}

// Reconciled reports whether the actual fee set has been written.
func (t *Transaction) Reconciled() bool {
	return t.FeeActualCents != nil
}
