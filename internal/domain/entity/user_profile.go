package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds editable personal information, keyed 1:1 by the owner
// ("users/{uid}"). All fields are optional free text.
type UserProfile struct {
	UID       uuid.UUID `gorm:"column:uid;type:uuid;primaryKey" json:"uid"`
	FirstName string    `gorm:"type:varchar(100)" json:"firstName"`
	LastName  string    `gorm:"type:varchar(100)" json:"lastName"`
	Birthday  string    `gorm:"type:varchar(50)" json:"birthday"`
	Gender    string    `gorm:"type:varchar(50)" json:"gender"`
	Contact   string    `gorm:"type:varchar(100)" json:"contact"`
	Address   string    `gorm:"type:text" json:"address"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "users"
}

// NewEmptyProfile returns the lazily-created default profile.
func NewEmptyProfile(uid uuid.UUID) *UserProfile {
	return &UserProfile{UID: uid}
}
