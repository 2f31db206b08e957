package service

import (
	"context"
	"time"

	"github.com/aki-13627/animalia/internal/domain"
)

// View structs are the JSON shapes handlers return. Image keys are never
// exposed raw; they are resolved to presigned URLs at view-build time.

type UserView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	IconImageURL string `json:"iconImageUrl"`
}

type PetView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      domain.PetType `json:"type"`
	Species   string         `json:"species"`
	BirthDay  string         `json:"birthDay"`
	ImageURL  string         `json:"imageUrl"`
	OwnerID   string         `json:"ownerId"`
	CreatedAt time.Time      `json:"createdAt"`
}

type CommentView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostView struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	ImageURL      string    `json:"imageUrl"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	LikedByMe     bool      `json:"likedByMe"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TimelineView struct {
	Posts      []PostView `json:"posts"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
}

func NewUserView(ctx context.Context, storage StorageService, user *domain.User) (UserView, error) {
	iconURL, err := storage.ImageURL(ctx, user.IconImageKey)
	if err != nil {
		return UserView{}, err
	}
	return UserView{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Bio:          user.Bio,
		IconImageURL: iconURL,
	}, nil
}

func NewPetView(ctx context.Context, storage StorageService, pet *domain.Pet) (PetView, error) {
	imageURL, err := storage.ImageURL(ctx, pet.ImageKey)
	if err != nil {
		return PetView{}, err
	}
	return PetView{
		ID:        pet.ID,
		Name:      pet.Name,
		Type:      pet.Type,
		Species:   pet.Species,
		BirthDay:  pet.BirthDay,
		ImageURL:  imageURL,
		OwnerID:   pet.OwnerID,
		CreatedAt: pet.CreatedAt,
	}, nil
}

func NewCommentView(comment *domain.Comment) CommentView {
	view := CommentView{
		ID:        comment.ID,
		Content:   comment.Content,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		CreatedAt: comment.CreatedAt,
	}
	if comment.User != nil {
		view.UserName = comment.User.Name
	}
	return view
}

func NewPostView(ctx context.Context, storage StorageService, post *domain.Post, viewerID string) (PostView, error) {
	imageURL, err := storage.ImageURL(ctx, post.ImageKey)
	if err != nil {
		return PostView{}, err
	}
	view := PostView{
		ID:            post.ID,
		Caption:       post.Caption,
		ImageURL:      imageURL,
		UserID:        post.UserID,
		LikesCount:    len(post.Likes),
		CommentsCount: len(post.Comments),
		CreatedAt:     post.CreatedAt,
	}
	if post.User != nil {
		view.UserName = post.User.Name
	}
	for _, like := range post.Likes {
		if like.UserID == viewerID {
			view.LikedByMe = true
			break
		}
	}
	return view, nil
}
