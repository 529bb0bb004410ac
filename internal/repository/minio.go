package repository

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aula-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage connects to an S3 compatible store and creates the bucket if needed.
func NewMinioStorage(ctx context.Context, opts MinioOptions) (domain.MediaStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &minioStorage{client: client, bucket: opts.Bucket}, nil
}

func (s *minioStorage) Put(ctx context.Context, upload domain.MediaUpload) (*domain.FileInfo, error) {
	id := uuid.NewString()
	meta := domain.FileMetadata{
		OriginalName: upload.Filename,
		UploadedBy:   upload.UploadedBy,
		Kind:         upload.Kind,
		CourseID:     upload.CourseID,
		ContentType:  upload.ContentType,
	}

	info, err := s.client.PutObject(ctx, s.bucket, id, upload.Reader, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
		UserMetadata: map[string]string{
			"original-name": upload.Filename,
			"uploaded-by":   strconv.FormatUint(uint64(upload.UploadedBy), 10),
			"kind":          string(upload.Kind),
			"course-id":     upload.CourseID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("minio upload: %w", err)
	}

	return &domain.FileInfo{
		ID:          id,
		Filename:    id,
		ContentType: upload.ContentType,
		Size:        info.Size,
		UploadDate:  info.LastModified,
		Metadata:    meta,
	}, nil
}

func (s *minioStorage) Get(ctx context.Context, id string) (io.ReadCloser, *domain.FileInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, domain.NotFound("file not found")
		}
		return nil, nil, fmt.Errorf("minio stat: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("minio get: %w", err)
	}

	uploadedBy, _ := strconv.ParseUint(userMeta(stat.UserMetadata, "uploaded-by"), 10, 64)
	return obj, &domain.FileInfo{
		ID:          id,
		Filename:    id,
		ContentType: stat.ContentType,
		Size:        stat.Size,
		UploadDate:  stat.LastModified,
		Metadata: domain.FileMetadata{
			OriginalName: userMeta(stat.UserMetadata, "original-name"),
			UploadedBy:   uint(uploadedBy),
			Kind:         domain.MediaKind(userMeta(stat.UserMetadata, "kind")),
			CourseID:     userMeta(stat.UserMetadata, "course-id"),
			ContentType:  stat.ContentType,
		},
	}, nil
}

func (s *minioStorage) Delete(ctx context.Context, id string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return domain.NotFound("file not found")
		}
		return fmt.Errorf("minio stat: %w", err)
	}
	return s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{})
}

// userMeta reads a user metadata key regardless of header canonicalisation.
func userMeta(m map[string]string, key string) string {
	for k, v := range m {
		if strings.EqualFold(k, key) || strings.EqualFold(k, "X-Amz-Meta-"+key) {
			return v
		}
	}
	return ""
}
