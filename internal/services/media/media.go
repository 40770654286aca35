package media

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bloghub/posts-service/internal/config"
)

type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
	useSSL     bool
}

type UploadInfo struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
	ImageURL    string `json:"image_url"`
}

// NewService creates a new media service instance
func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Media,
		useSSL:     cfg.MinIO.UseSSL,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ValidateContentType checks if the content type is allowed
func (s *Service) ValidateContentType(contentType string) bool {
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// GenerateObjectKey creates a unique object key for a post image
func (s *Service) GenerateObjectKey(userID int64, contentType string) string {
	extensions, err := mime.ExtensionsByType(contentType)
	var ext string
	if err == nil && len(extensions) > 0 {
		ext = extensions[0]
	} else {
		switch contentType {
		case "image/jpeg":
			ext = ".jpg"
		case "image/png":
			ext = ".png"
		case "image/gif":
			ext = ".gif"
		case "image/webp":
			ext = ".webp"
		default:
			ext = ""
		}
	}

	filename := uuid.New().String() + ext

	return fmt.Sprintf("users/%d/images/%s", userID, filename)
}

// GeneratePresignedUploadURL creates a presigned URL for uploading a post image
func (s *Service) GeneratePresignedUploadURL(userID int64, contentType string) (*UploadInfo, error) {
	if !s.ValidateContentType(contentType) {
		return nil, fmt.Errorf("content type %s is not allowed", contentType)
	}

	objectKey := s.GenerateObjectKey(userID, contentType)

	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	presignedURL, err := s.client.PresignedPutObject(
		context.Background(),
		s.bucketName,
		objectKey,
		expiry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &UploadInfo{
		ObjectKey:   objectKey,
		UploadURL:   presignedURL.String(),
		ExpiresAt:   time.Now().Add(expiry).Unix(),
		MaxFileSize: s.config.MaxFileSize,
		ContentType: contentType,
		ImageURL:    s.GetMediaURL(objectKey),
	}, nil
}

// GetMediaURL returns the public URL stored in a post's image field
func (s *Service) GetMediaURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, objectKey)
}

// GetObjectInfo returns information about an uploaded image
func (s *Service) GetObjectInfo(objectKey string) (minio.ObjectInfo, error) {
	return s.client.StatObject(
		context.Background(),
		s.bucketName,
		objectKey,
		minio.StatObjectOptions{},
	)
}

// DeleteObject removes an uploaded image from storage
func (s *Service) DeleteObject(objectKey string) error {
	return s.client.RemoveObject(
		context.Background(),
		s.bucketName,
		objectKey,
		minio.RemoveObjectOptions{},
	)
}
