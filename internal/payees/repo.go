package payees

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/streamtips/streamtips-backend/pkg/db/models"
)

// Repository manages persistence for the payee roster.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*models.Payee, error)
	ListAll(ctx context.Context) ([]models.Payee, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payee repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Payee, error) {
	var payee models.Payee
	err := r.db.WithContext(ctx).First(&payee, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payee, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Payee, error) {
	var payees []models.Payee
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&payees).Error; err != nil {
		return nil, err
	}
	return payees, nil
}
