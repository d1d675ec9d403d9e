package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// UpdateProfileRequest replaces the whole profile; omitted fields are cleared.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Birthday  string `json:"birthday" validate:"max=50"`
	Gender    string `json:"gender" validate:"max=50"`
	Contact   string `json:"contact" validate:"max=100"`
	Address   string `json:"address" validate:"max=500"`
}

// Response DTOs

type ProfileResponse struct {
	UID       uuid.UUID  `json:"uid"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Birthday  string     `json:"birthday"`
	Gender    string     `json:"gender"`
	Contact   string     `json:"contact"`
	Address   string     `json:"address"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
