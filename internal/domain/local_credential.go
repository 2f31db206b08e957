package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocalCredential is the identity-provider side of an account. It is keyed
// by email and deliberately carries no foreign key to User: the provider's
// copy of an identity is only loosely synced with the local row.
type LocalCredential struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name            string     `gorm:"size:255" json:"name"`
	PasswordHash    string     `gorm:"size:128;not null" json:"-"`
	EmailVerified   bool       `gorm:"not null;default:false" json:"emailVerified"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c *LocalCredential) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
