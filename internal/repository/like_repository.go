package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

type LikeRepository interface {
	// Create is idempotent: liking an already-liked post is a no-op.
	Create(postID, userID string) error
	Delete(postID, userID string) error
	Exists(postID, userID string) (bool, error)
	CountByPost(postID string) (int64, error)
}

type GormLikeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &GormLikeRepository{db: db}
}

func (r *GormLikeRepository) Create(postID, userID string) error {
	err := r.db.Create(&domain.Like{PostID: postID, UserID: userID}).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil {
		exists, existsErr := r.Exists(postID, userID)
		if existsErr == nil && exists {
			return nil
		}
		return err
	}
	return nil
}

func (r *GormLikeRepository) Delete(postID, userID string) error {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.Like{}).Error
}

func (r *GormLikeRepository) Exists(postID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormLikeRepository) CountByPost(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
