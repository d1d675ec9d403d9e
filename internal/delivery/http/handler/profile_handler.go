package handler

import (
	"net/http"
	"strconv"

	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/delivery/http/middleware"
	"medconsult-api/internal/usecase"
	"medconsult-api/pkg/response"
	"medconsult-api/pkg/validator"
)

type ProfileHandler struct {
	profileUsecase usecase.ProfileUsecase
	validator      *validator.CustomValidator
}

func NewProfileHandler(profileUsecase usecase.ProfileUsecase, validator *validator.CustomValidator) *ProfileHandler {
	return &ProfileHandler{
		profileUsecase: profileUsecase,
		validator:      validator,
	}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipalFromContext(r.Context())

	profile, err := h.profileUsecase.GetProfile(r.Context(), principal)
	if err != nil {
		writeError(w, err, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateProfile replaces the whole profile; omitted fields are cleared.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipalFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	profile, err := h.profileUsecase.UpdateProfile(r.Context(), principal, &req)
	if err != nil {
		writeError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", profile)
}

// DeleteProfile requires ?confirm=true.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.GetPrincipalFromContext(r.Context())
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	if err := h.profileUsecase.DeleteProfile(r.Context(), principal, confirmed); err != nil {
		writeError(w, err, "Failed to delete profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile deleted successfully", nil)
}
