package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/repository"
)

var (
	ErrMissingImage = errors.New("post image is required")
	ErrNotPostOwner = errors.New("post does not belong to user")
)

type PostServiceInterface interface {
	Create(ctx context.Context, userID, caption string, image *ImageUpload) (*PostView, error)
	Timeline(ctx context.Context, viewerID string, page repository.PageRequest) (*TimelineView, error)
	ListByUser(ctx context.Context, userID, viewerID string) ([]PostView, error)
	Delete(ctx context.Context, id, userID string) error
	AddComment(ctx context.Context, postID, userID, content string) (*CommentView, error)
	ListComments(ctx context.Context, postID string) ([]CommentView, error)
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
}

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	storage  StorageService
	cache    FeedCacheStore
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	storage StorageService,
	cache FeedCacheStore,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		likes:    likes,
		storage:  storage,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (s *PostService) Create(ctx context.Context, userID, caption string, image *ImageUpload) (*PostView, error) {
	if image == nil {
		return nil, ErrMissingImage
	}
	key, err := s.storage.UploadImage(ctx, ImageKindPost, image.Reader, image.Size, image.ContentType)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{Caption: caption, ImageKey: key, UserID: userID}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}

	view, err := NewPostView(ctx, s.storage, post, userID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Timeline serves cached pages when the viewer is anonymous-agnostic data
// only; liked-by-me is viewer specific, so cache entries are keyed per
// viewer and page.
func (s *PostService) Timeline(ctx context.Context, viewerID string, page repository.PageRequest) (*TimelineView, error) {
	cacheKey := fmt.Sprintf("%s:%d:%d", viewerID, page.Page, page.PageSize)
	if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached TimelineView
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	} else if err != nil {
		s.logger.WarnContext(ctx, "feed cache read failed", "error", err)
	}

	result, err := s.posts.ListTimeline(page)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(result.Items))
	for i := range result.Items {
		view, err := NewPostView(ctx, s.storage, &result.Items[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	timeline := &TimelineView{
		Posts:      views,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}

	if raw, err := json.Marshal(timeline); err == nil {
		if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "feed cache write failed", "error", err)
		}
	}
	return timeline, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID, viewerID string) ([]PostView, error) {
	posts, err := s.posts.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		view, err := NewPostView(ctx, s.storage, &posts[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *PostService) Delete(ctx context.Context, id, userID string) error {
	if err := s.posts.Delete(id, userID); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}
	return nil
}

func (s *PostService) AddComment(ctx context.Context, postID, userID, content string) (*CommentView, error) {
	if _, err := s.posts.FindByID(postID); err != nil {
		return nil, err
	}
	comment := &domain.Comment{Content: content, PostID: postID, UserID: userID}
	if err := s.comments.Create(comment); err != nil {
		return nil, err
	}
	view := NewCommentView(comment)
	return &view, nil
}

func (s *PostService) ListComments(_ context.Context, postID string) ([]CommentView, error) {
	comments, err := s.comments.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, NewCommentView(&comments[i]))
	}
	return views, nil
}

func (s *PostService) Like(ctx context.Context, postID, userID string) error {
	if _, err := s.posts.FindByID(postID); err != nil {
		return err
	}
	if err := s.likes.Create(postID, userID); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}
	return nil
}

func (s *PostService) Unlike(ctx context.Context, postID, userID string) error {
	if err := s.likes.Delete(postID, userID); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}
	return nil
}
