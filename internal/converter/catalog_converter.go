package converter

import (
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
)

func ServiceToResponse(info entity.ServiceInfo) dto.ServiceResponse {
	return dto.ServiceResponse{
		Type:            string(info.Type),
		Slug:            info.Slug,
		Description:     info.Description,
		Audience:        info.Audience,
		Expectations:    info.Expectations,
		DurationMinutes: info.DurationMinutes,
		Price:           info.Price,
		Amount:          info.Amount(),
		Currency:        entity.Currency,
	}
}

func ServicesToResponses(services []entity.ServiceInfo) []dto.ServiceResponse {
	responses := make([]dto.ServiceResponse, len(services))
	for i, info := range services {
		responses[i] = ServiceToResponse(info)
	}
	return responses
}
