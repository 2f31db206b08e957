package domain

import "time"

// VerificationToken holds a hashed email-confirmation code on the provider
// side. Codes are single-use and expire; only the newest active code per
// email is honored.
type VerificationToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"size:255;index;not null" json:"email"`
	CodeHash  string     `gorm:"size:128;index;not null" json:"-"`
	Purpose   string     `gorm:"size:32;index;not null" json:"purpose"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expiresAt"`
	UsedAt    *time.Time `gorm:"index" json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

const (
	VerificationPurposeEmail = "email_verify"
)
