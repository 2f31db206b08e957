package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrCredentialNotFound = errors.New("credential not found")

type LocalCredentialRepository interface {
	Create(cred *domain.LocalCredential) error
	FindByID(id string) (*domain.LocalCredential, error)
	FindByEmail(email string) (*domain.LocalCredential, error)
	ExistsEmail(email string) (bool, error)
	UpdatePassword(email, passwordHash string) error
	MarkEmailVerified(email string) error
}

type GormLocalCredentialRepository struct{ db *gorm.DB }

func NewLocalCredentialRepository(db *gorm.DB) LocalCredentialRepository {
	return &GormLocalCredentialRepository{db: db}
}

func (r *GormLocalCredentialRepository) Create(cred *domain.LocalCredential) error {
	cred.Email = normalizeEmail(cred.Email)
	return r.db.Create(cred).Error
}

func (r *GormLocalCredentialRepository) FindByID(id string) (*domain.LocalCredential, error) {
	var cred domain.LocalCredential
	if err := r.db.First(&cred, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *GormLocalCredentialRepository) FindByEmail(email string) (*domain.LocalCredential, error) {
	var cred domain.LocalCredential
	if err := r.db.First(&cred, "email = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *GormLocalCredentialRepository) ExistsEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.LocalCredential{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormLocalCredentialRepository) UpdatePassword(email, passwordHash string) error {
	return r.db.Model(&domain.LocalCredential{}).
		Where("email = ?", normalizeEmail(email)).
		Update("password_hash", passwordHash).Error
}

func (r *GormLocalCredentialRepository) MarkEmailVerified(email string) error {
	now := time.Now().UTC()
	return r.db.Model(&domain.LocalCredential{}).
		Where("email = ?", normalizeEmail(email)).
		Updates(map[string]any{
			"email_verified":    true,
			"email_verified_at": &now,
		}).Error
}
