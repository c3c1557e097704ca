package payees

import (
	"context"

	"github.com/streamtips/streamtips-backend/pkg/db/models"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

// Service exposes read access to the streamer roster.
type Service interface {
	List(ctx context.Context) ([]models.Payee, error)
	Get(ctx context.Context, id string) (*models.Payee, error)
}

type service struct {
	repo Repository
}

// NewService wires a payee service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payee repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Payee, error) {
	payees, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payees")
	}
	return payees, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Payee, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payee id is required")
	}
	payee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payee")
	}
	if payee == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payee not found")
	}
	return payee, nil
}
