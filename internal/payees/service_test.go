package payees

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/streamtips/streamtips-backend/pkg/db/models"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

type stubRepo struct {
	payees map[string]*models.Payee
	err    error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByID(ctx context.Context, id string) (*models.Payee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payees[id], nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]models.Payee, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Payee, 0, len(s.payees))
	for _, payee := range s.payees {
		out = append(out, *payee)
	}
	return out, nil
}

func TestServiceGet(t *testing.T) {
	svc, err := NewService(&stubRepo{payees: map[string]*models.Payee{
		"payee_1": {ID: "payee_1", Name: "GamingPro"},
	}})
	require.NoError(t, err)

	payee, err := svc.Get(context.Background(), "payee_1")
	require.NoError(t, err)
	assert.Equal(t, "GamingPro", payee.Name)
}

func TestServiceGet_Missing(t *testing.T) {
	svc, err := NewService(&stubRepo{payees: map[string]*models.Payee{}})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "payee_ghost")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = svc.Get(context.Background(), "")
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceGet_RepoFailure(t *testing.T) {
	svc, err := NewService(&stubRepo{err: errors.New("db down")})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "payee_1")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	_, err = svc.List(context.Background())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestNewService_RequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
