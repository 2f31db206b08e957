package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(session *domain.Session) error
	// FindLiveByHash resolves a session that is neither revoked nor expired.
	FindLiveByHash(hash string, now time.Time) (*domain.Session, error)
	RevokeByHash(hash string) error
	RevokeByUserID(userID string) (int64, error)
	CleanupExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(session *domain.Session) error {
	return r.db.Create(session).Error
}

func (r *GormSessionRepository) FindLiveByHash(hash string, now time.Time) (*domain.Session, error) {
	var session domain.Session
	err := r.db.
		Where("refresh_token_hash = ?", hash).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) RevokeByHash(hash string) error {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where("refresh_token_hash = ?", hash).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *GormSessionRepository) RevokeByUserID(userID string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now)
	return res.RowsAffected, res.Error
}

func (r *GormSessionRepository) CleanupExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
