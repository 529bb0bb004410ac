package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaUpload(t *testing.T) {
	storage := newMemStorage()
	uc := NewMediaUsecase(storage, 1<<20, logger.NewNop())
	ctx := context.Background()

	upload := func(kind domain.MediaKind, name, ct string, size int64) (*domain.FileInfo, error) {
		return uc.Upload(ctx, domain.MediaUpload{
			Kind: kind, Reader: strings.NewReader("data"), Filename: name, ContentType: ct, Size: size, UploadedBy: 1,
		})
	}

	info, err := upload(domain.MediaVideo, "clase.mp4", "video/mp4", 4)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", info.ContentType)

	info, err = upload(domain.MediaMaterial, "guia.pdf", "", 4)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", info.ContentType, "detected from the extension")

	_, err = upload(domain.MediaVideo, "virus.exe", "application/octet-stream", 4)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = upload(domain.MediaAudio, "big.mp3", "audio/mpeg", 2<<20)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = upload(domain.MediaDiploma, "d.png", "image/png", 4)
	assert.True(t, domain.IsKind(err, domain.KindValidation), "diplomas are only written by the issuer")

	rc, got, err := uc.Open(ctx, info.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "data", string(body))
	assert.Equal(t, "guia.pdf", got.Filename)

	require.NoError(t, uc.Delete(ctx, info.ID))
	_, _, err = uc.Open(ctx, info.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
