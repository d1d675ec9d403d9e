package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/service"
	"medconsult-api/pkg/response"

	"github.com/sirupsen/logrus"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// TokenValidator resolves a bearer token into the principal it was issued for.
type TokenValidator interface {
	Validate(ctx context.Context, accessToken string) (*entity.Principal, error)
}

type AuthMiddleware struct {
	validator TokenValidator
	log       *logrus.Logger
}

func NewAuthMiddleware(validator TokenValidator, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		log:       log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		principal, err := m.validator.Validate(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				response.Unauthorized(w, "Invalid or expired token")
			case errors.Is(err, service.ErrTokenRevoked):
				response.Unauthorized(w, "Token has been revoked")
			default:
				m.log.Warnf("Failed to validate token: %+v", err)
				response.ServiceUnavailable(w, "Failed to validate token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalFromContext extracts the authenticated principal from context
func GetPrincipalFromContext(ctx context.Context) (*entity.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(*entity.Principal)
	return principal, ok && principal != nil
}
