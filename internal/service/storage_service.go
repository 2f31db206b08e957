package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxImageSize    = 10 * 1024 * 1024 // 10 MB
	presignedURLTTL = 15 * time.Minute
)

// Object key prefixes per image kind.
const (
	ImageKindIcon = "icons"
	ImageKindPet  = "pets"
	ImageKindPost = "posts"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 10MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")

	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService is the object storage surface consumed by handlers.
type StorageService interface {
	// UploadImage stores an image under the given kind prefix and returns
	// the object key.
	UploadImage(ctx context.Context, kind string, file io.Reader, fileSize int64, contentType string) (string, error)

	// DeleteImage removes an object by key. Empty keys are a no-op.
	DeleteImage(ctx context.Context, objectKey string) error

	// ImageURL returns a presigned GET URL for the object, or "" for an
	// empty key.
	ImageURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOStorageService implements StorageService on any S3-compatible
// endpoint.
type MinIOStorageService struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	svc := &MinIOStorageService{client: client, bucketName: bucketName}
	if err := svc.ensureBucketExists(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *MinIOStorageService) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

func (s *MinIOStorageService) UploadImage(ctx context.Context, kind string, file io.Reader, fileSize int64, contentType string) (string, error) {
	if fileSize > maxImageSize {
		return "", ErrFileTooBig
	}

	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if _, allowed := allowedContentTypes[normalized]; !allowed {
		return "", ErrInvalidFileType
	}

	objectKey := fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), contentTypeToExtension(normalized))

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, file, fileSize, minio.PutObjectOptions{
		ContentType: normalized,
		UserMetadata: map[string]string{
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteImage(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinIOStorageService) ImageURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", nil
	}
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presignedURL.String(), nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
