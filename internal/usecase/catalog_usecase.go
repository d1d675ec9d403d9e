package usecase

import (
	"context"

	"medconsult-api/internal/converter"
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
)

// CatalogUsecase serves the fixed consultation catalog.
type CatalogUsecase interface {
	ListServices(ctx context.Context) *dto.ServiceListResponse
	GetService(ctx context.Context, key string) (*dto.ServiceResponse, error)
}

type catalogUsecase struct{}

func NewCatalogUsecase() CatalogUsecase {
	return &catalogUsecase{}
}

func (u *catalogUsecase) ListServices(ctx context.Context) *dto.ServiceListResponse {
	services := entity.Services()
	return &dto.ServiceListResponse{
		Services: converter.ServicesToResponses(services),
		Total:    len(services),
	}
}

// GetService accepts a display name or slug.
func (u *catalogUsecase) GetService(ctx context.Context, key string) (*dto.ServiceResponse, error) {
	serviceType, ok := entity.ParseServiceType(key)
	if !ok {
		return nil, ErrServiceNotFound
	}
	info, _ := serviceType.Info()
	response := converter.ServiceToResponse(info)
	return &response, nil
}
