package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/pkg/mediatype"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "uploads"

type gridFSStorage struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

// NewGridFSStorage stores media in the "uploads" GridFS bucket.
func NewGridFSStorage(db *mongo.Database) (domain.MediaStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}
	return &gridFSStorage{db: db, bucket: bucket}, nil
}

func storedName(original string) string {
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString()[:8], filepath.Ext(original))
}

func (s *gridFSStorage) Put(ctx context.Context, upload domain.MediaUpload) (*domain.FileInfo, error) {
	meta := domain.FileMetadata{
		OriginalName: upload.Filename,
		UploadedBy:   upload.UploadedBy,
		Kind:         upload.Kind,
		CourseID:     upload.CourseID,
		ContentType:  upload.ContentType,
	}
	name := storedName(upload.Filename)

	objectID, err := s.bucket.UploadFromStream(name, upload.Reader, options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return nil, fmt.Errorf("gridfs upload: %w", err)
	}

	return &domain.FileInfo{
		ID:          objectID.Hex(),
		Filename:    name,
		ContentType: upload.ContentType,
		Size:        upload.Size,
		UploadDate:  time.Now(),
		Metadata:    meta,
	}, nil
}

func (s *gridFSStorage) Get(ctx context.Context, id string) (io.ReadCloser, *domain.FileInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, domain.NotFound("file not found")
	}

	info, err := s.fileInfo(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.NotFound("file not found")
		}
		return nil, nil, fmt.Errorf("gridfs open: %w", err)
	}
	return stream, info, nil
}

func (s *gridFSStorage) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.NotFound("file not found")
	}
	if err := s.bucket.Delete(objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.NotFound("file not found")
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

func (s *gridFSStorage) fileInfo(ctx context.Context, id primitive.ObjectID) (*domain.FileInfo, error) {
	var result struct {
		ID         primitive.ObjectID  `bson:"_id"`
		Filename   string              `bson:"filename"`
		Length     int64               `bson:"length"`
		UploadDate time.Time           `bson:"uploadDate"`
		Metadata   domain.FileMetadata `bson:"metadata"`
	}
	err := s.db.Collection(bucketName+".files").FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("file not found")
	}
	if err != nil {
		return nil, err
	}

	contentType := result.Metadata.ContentType
	if contentType == "" {
		contentType = mediatype.Detect(result.Filename)
	}
	return &domain.FileInfo{
		ID:          result.ID.Hex(),
		Filename:    result.Filename,
		ContentType: contentType,
		Size:        result.Length,
		UploadDate:  result.UploadDate,
		Metadata:    result.Metadata,
	}, nil
}
