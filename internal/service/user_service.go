package service

import (
	"context"
	"fmt"
	"io"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/repository"
)

type UserServiceInterface interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, name, bio string, icon *ImageUpload) (*domain.User, error)
	Follow(ctx context.Context, fromID, toID string) error
	Unfollow(ctx context.Context, fromID, toID string) error
	FollowerCount(ctx context.Context, userID string) (int64, error)
	FollowsCount(ctx context.Context, userID string) (int64, error)
	FollowerUsers(ctx context.Context, userID string) ([]UserView, error)
	FollowsUsers(ctx context.Context, userID string) ([]UserView, error)
}

// ImageUpload carries a multipart file through the service layer.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	storage StorageService
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository, storage StorageService) *UserService {
	return &UserService{users: users, follows: follows, storage: storage}
}

func (s *UserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(id)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, name, bio string, icon *ImageUpload) (*domain.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if icon != nil {
		key, err := s.storage.UploadImage(ctx, ImageKindIcon, icon.Reader, icon.Size, icon.ContentType)
		if err != nil {
			return nil, err
		}
		oldKey := user.IconImageKey
		user.IconImageKey = key
		if oldKey != "" {
			// Old icon is unreferenced after the swap; removal failure
			// only leaks an object, so it is not fatal.
			_ = s.storage.DeleteImage(ctx, oldKey)
		}
	}

	user.Name = name
	user.Bio = bio
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Follow(_ context.Context, fromID, toID string) error {
	if _, err := s.users.FindByID(toID); err != nil {
		return err
	}
	return s.follows.Create(fromID, toID)
}

func (s *UserService) Unfollow(_ context.Context, fromID, toID string) error {
	return s.follows.Delete(fromID, toID)
}

func (s *UserService) FollowerCount(_ context.Context, userID string) (int64, error) {
	return s.follows.CountFollowers(userID)
}

func (s *UserService) FollowsCount(_ context.Context, userID string) (int64, error) {
	return s.follows.CountFollows(userID)
}

func (s *UserService) FollowerUsers(ctx context.Context, userID string) ([]UserView, error) {
	users, err := s.follows.ListFollowers(userID)
	if err != nil {
		return nil, err
	}
	return s.userViews(ctx, users)
}

func (s *UserService) FollowsUsers(ctx context.Context, userID string) ([]UserView, error) {
	users, err := s.follows.ListFollows(userID)
	if err != nil {
		return nil, err
	}
	return s.userViews(ctx, users)
}

func (s *UserService) userViews(ctx context.Context, users []domain.User) ([]UserView, error) {
	views := make([]UserView, 0, len(users))
	for i := range users {
		view, err := NewUserView(ctx, s.storage, &users[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
