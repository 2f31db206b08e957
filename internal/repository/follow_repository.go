package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

type FollowRepository interface {
	Create(fromID, toID string) error
	Delete(fromID, toID string) error
	CountFollowers(userID string) (int64, error)
	CountFollows(userID string) (int64, error)
	ListFollowers(userID string) ([]domain.User, error)
	ListFollows(userID string) ([]domain.User, error)
}

type GormFollowRepository struct{ db *gorm.DB }

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &GormFollowRepository{db: db}
}

func (r *GormFollowRepository) Create(fromID, toID string) error {
	if fromID == toID {
		return ErrSelfFollow
	}
	err := r.db.Create(&domain.FollowRelation{FromID: fromID, ToID: toID}).Error
	if err != nil {
		var count int64
		if r.db.Model(&domain.FollowRelation{}).
			Where("from_id = ? AND to_id = ?", fromID, toID).
			Count(&count).Error == nil && count > 0 {
			return nil
		}
		return err
	}
	return nil
}

func (r *GormFollowRepository) Delete(fromID, toID string) error {
	return r.db.Where("from_id = ? AND to_id = ?", fromID, toID).Delete(&domain.FollowRelation{}).Error
}

func (r *GormFollowRepository) CountFollowers(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.FollowRelation{}).Where("to_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *GormFollowRepository) CountFollows(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.FollowRelation{}).Where("from_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *GormFollowRepository) ListFollowers(userID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.
		Joins("JOIN follow_relations ON follow_relations.from_id = users.id").
		Where("follow_relations.to_id = ?", userID).
		Find(&users).Error
	return users, err
}

func (r *GormFollowRepository) ListFollows(userID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.
		Joins("JOIN follow_relations ON follow_relations.to_id = users.id").
		Where("follow_relations.from_id = ?", userID).
		Find(&users).Error
	return users, err
}
