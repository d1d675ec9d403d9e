package handler

import (
	"encoding/json"
	"net/http"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/delivery/http/middleware"
	"medconsult-api/internal/usecase"
	"medconsult-api/pkg/response"
	"medconsult-api/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
	}
}

// SignUp handles account registration
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Sign-up Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.authUsecase.SignUp(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to sign up")
		return
	}

	response.Success(w, http.StatusCreated, "Account created successfully", res)
}

// SignIn handles email/password sign-in
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Sign-in Request"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.authUsecase.SignIn(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to sign in")
		return
	}

	response.Success(w, http.StatusOK, "Sign in successful", res)
}

// SignOut revokes the current session
// @Summary Sign out
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipalFromContext(r.Context())

	if err := h.authUsecase.SignOut(r.Context(), principal); err != nil {
		writeError(w, err, "Failed to sign out")
		return
	}

	response.Success(w, http.StatusOK, "Sign out successful", nil)
}

// RefreshToken handles token rotation
// @Summary Refresh access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token Request"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.RefreshToken(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to refresh token")
		return
	}

	response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
}

// Me returns the signed-in account
// @Summary Get current account
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipalFromContext(r.Context())

	account, err := h.authUsecase.CurrentAccount(r.Context(), principal)
	if err != nil {
		writeError(w, err, "Failed to get account info")
		return
	}

	response.Success(w, http.StatusOK, "Account retrieved successfully", account)
}

// RequestPasswordReset always answers 202 so accounts cannot be enumerated.
// @Summary Request a password reset email
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Password Reset Request"
// @Success 202 {object} response.Response
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authUsecase.RequestPasswordReset(r.Context(), &req); err != nil {
		writeError(w, err, "Failed to request password reset")
		return
	}

	response.Success(w, http.StatusAccepted, "If the email is registered, a reset link has been sent", nil)
}

// ConfirmPasswordReset sets a new password using a reset token
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetConfirmRequest true "Password Reset Confirmation"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetConfirmRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authUsecase.ResetPassword(r.Context(), &req); err != nil {
		writeError(w, err, "Failed to reset password")
		return
	}

	response.Success(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	return decodeAndValidate(w, r, h.validator, req)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}
