package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUsecase(t *testing.T) {
	uc := NewCatalogUsecase()
	ctx := context.Background()

	list := uc.ListServices(ctx)
	require.Equal(t, 6, list.Total)
	assert.Equal(t, "General Medicine", list.Services[0].Type)

	svc, err := uc.GetService(ctx, "ophthalmology")
	require.NoError(t, err)
	assert.Equal(t, "Ophthalmology", svc.Type)
	assert.True(t, svc.Amount.Equal(decimal.NewFromInt(1200)))

	_, err = uc.GetService(ctx, "dentistry")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
