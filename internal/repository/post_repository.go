package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	Create(post *domain.Post) error
	FindByID(id string) (*domain.Post, error)
	ListTimeline(page PageRequest) (PageResult[domain.Post], error)
	ListByUser(userID string) ([]domain.Post, error)
	Delete(id, userID string) error
}

type GormPostRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(post *domain.Post) error {
	return r.db.Create(post).Error
}

func (r *GormPostRepository) FindByID(id string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.
		Preload("User").
		Preload("Comments").
		Preload("Likes").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *GormPostRepository) ListTimeline(page PageRequest) (PageResult[domain.Post], error) {
	page = normalizePageRequest(page)

	var total int64
	if err := r.db.Model(&domain.Post{}).Count(&total).Error; err != nil {
		return PageResult[domain.Post]{}, err
	}

	var posts []domain.Post
	err := r.db.
		Preload("User").
		Preload("Comments").
		Preload("Likes").
		Order("created_at desc").
		Limit(page.PageSize).
		Offset(page.offset()).
		Find(&posts).Error
	if err != nil {
		return PageResult[domain.Post]{}, err
	}

	return PageResult[domain.Post]{
		Items:      posts,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

func (r *GormPostRepository) ListByUser(userID string) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.
		Preload("User").
		Preload("Comments").
		Preload("Likes").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&posts).Error
	return posts, err
}

func (r *GormPostRepository) Delete(id, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
