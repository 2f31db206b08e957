package service

import (
	"context"
	"io"
	"log/slog"
)

// stubStorageService lets tests drive the storage boundary with function
// fields; unset functions fall back to deterministic defaults.
type stubStorageService struct {
	UploadImageFn func(ctx context.Context, kind string, file io.Reader, fileSize int64, contentType string) (string, error)
	DeleteImageFn func(ctx context.Context, objectKey string) error
	ImageURLFn    func(ctx context.Context, objectKey string) (string, error)
}

func (s *stubStorageService) UploadImage(ctx context.Context, kind string, file io.Reader, fileSize int64, contentType string) (string, error) {
	if s.UploadImageFn != nil {
		return s.UploadImageFn(ctx, kind, file, fileSize, contentType)
	}
	return kind + "/uploaded", nil
}

func (s *stubStorageService) DeleteImage(ctx context.Context, objectKey string) error {
	if s.DeleteImageFn != nil {
		return s.DeleteImageFn(ctx, objectKey)
	}
	return nil
}

func (s *stubStorageService) ImageURL(ctx context.Context, objectKey string) (string, error) {
	if s.ImageURLFn != nil {
		return s.ImageURLFn(ctx, objectKey)
	}
	if objectKey == "" {
		return "", nil
	}
	return "https://storage.test/" + objectKey, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
