package repository

import (
	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

type CommentRepository interface {
	Create(comment *domain.Comment) error
	ListByPost(postID string) ([]domain.Comment, error)
}

type GormCommentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(comment *domain.Comment) error {
	return r.db.Create(comment).Error
}

func (r *GormCommentRepository) ListByPost(postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}
