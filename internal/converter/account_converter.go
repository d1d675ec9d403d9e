package converter

import (
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/service"
)

// AccountToResponse converts an Account entity to AccountResponse DTO
func AccountToResponse(account *entity.Account) *dto.AccountResponse {
	if account == nil {
		return nil
	}

	return &dto.AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}

func SessionToTokenResponse(session *service.Session) *dto.TokenResponse {
	if session == nil {
		return nil
	}

	return &dto.TokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    session.ExpiresIn,
	}
}
