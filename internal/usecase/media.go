package usecase

import (
	"context"
	"io"
	"strings"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"
	"aula-backend/pkg/mediatype"
)

type mediaUsecase struct {
	storage  domain.MediaStorage
	maxBytes int64
	log      *logger.Logger
}

// NewMediaUsecase rejects uploads above maxBytes; 0 disables the limit.
func NewMediaUsecase(storage domain.MediaStorage, maxBytes int64, log *logger.Logger) domain.MediaUsecase {
	return &mediaUsecase{storage: storage, maxBytes: maxBytes, log: log}
}

func (uc *mediaUsecase) Upload(ctx context.Context, upload domain.MediaUpload) (*domain.FileInfo, error) {
	switch upload.Kind {
	case domain.MediaVideo, domain.MediaAudio, domain.MediaImage, domain.MediaMaterial:
	default:
		return nil, domain.Validation("unknown media kind %q", upload.Kind)
	}
	if strings.TrimSpace(upload.Filename) == "" {
		return nil, domain.Validation("the file needs a name")
	}
	if uc.maxBytes > 0 && upload.Size > uc.maxBytes {
		return nil, domain.Validation("the file exceeds the %d MB limit", uc.maxBytes>>20)
	}
	if !mediatype.Allowed(string(upload.Kind), upload.ContentType, upload.Filename) {
		return nil, domain.Validation("%s is not an accepted %s file", upload.Filename, upload.Kind)
	}
	if upload.ContentType == "" {
		upload.ContentType = mediatype.Detect(upload.Filename)
	}

	info, err := uc.storage.Put(ctx, upload)
	if err != nil {
		return nil, err
	}
	uc.log.Info("media uploaded", "file_id", info.ID, "kind", upload.Kind, "size", info.Size, "uploaded_by", upload.UploadedBy)
	return info, nil
}

func (uc *mediaUsecase) Open(ctx context.Context, id string) (io.ReadCloser, *domain.FileInfo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil, domain.Validation("invalid media id")
	}
	return uc.storage.Get(ctx, id)
}

func (uc *mediaUsecase) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("invalid media id")
	}
	return uc.storage.Delete(ctx, id)
}
