package converter

import (
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
)

func ProfileToResponse(profile *entity.UserProfile) *dto.ProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.ProfileResponse{
		UID:       profile.UID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Birthday:  profile.Birthday,
		Gender:    profile.Gender,
		Contact:   profile.Contact,
		Address:   profile.Address,
	}
	if !profile.UpdatedAt.IsZero() {
		updatedAt := profile.UpdatedAt
		response.UpdatedAt = &updatedAt
	}
	return response
}

// ProfileFromRequest overwrites every editable field of profile.
func ProfileFromRequest(profile *entity.UserProfile, req *dto.UpdateProfileRequest) {
	profile.FirstName = req.FirstName
	profile.LastName = req.LastName
	profile.Birthday = req.Birthday
	profile.Gender = req.Gender
	profile.Contact = req.Contact
	profile.Address = req.Address
}
