package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrVerificationTokenNotFound = errors.New("verification token not found")

type VerificationTokenRepository interface {
	Create(token *domain.VerificationToken) error
	FindActiveByCodeHash(email, codeHash, purpose string, now time.Time) (*domain.VerificationToken, error)
	InvalidateActiveByEmailPurpose(email, purpose string, now time.Time) error
	// Consume marks a token used; it fails with ErrVerificationTokenNotFound
	// if the token was already consumed, so concurrent confirms race safely.
	Consume(id uint, now time.Time) error
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Create(token *domain.VerificationToken) error {
	token.Email = normalizeEmail(token.Email)
	return r.db.Create(token).Error
}

func (r *GormVerificationTokenRepository) FindActiveByCodeHash(email, codeHash, purpose string, now time.Time) (*domain.VerificationToken, error) {
	var token domain.VerificationToken
	err := r.db.
		Where("email = ? AND code_hash = ? AND purpose = ?", normalizeEmail(email), codeHash, purpose).
		Where("used_at IS NULL").
		Where("expires_at > ?", now).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *GormVerificationTokenRepository) InvalidateActiveByEmailPurpose(email, purpose string, now time.Time) error {
	return r.db.Model(&domain.VerificationToken{}).
		Where("email = ? AND purpose = ?", normalizeEmail(email), purpose).
		Where("used_at IS NULL").
		Update("used_at", &now).Error
}

func (r *GormVerificationTokenRepository) Consume(id uint, now time.Time) error {
	res := r.db.Model(&domain.VerificationToken{}).
		Where("id = ?", id).
		Where("used_at IS NULL").
		Update("used_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVerificationTokenNotFound
	}
	return nil
}
