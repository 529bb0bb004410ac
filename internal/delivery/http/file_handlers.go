package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// FileHandler serves uploads and downloads backed by the media store.
type FileHandler struct {
	media       domain.MediaUsecase
	diplomas    domain.DiplomaUsecase
	enrollments domain.EnrollmentUsecase
	log         *logger.Logger
}

func NewFileHandler(media domain.MediaUsecase, diplomas domain.DiplomaUsecase, enrollments domain.EnrollmentUsecase, log *logger.Logger) *FileHandler {
	return &FileHandler{media: media, diplomas: diplomas, enrollments: enrollments, log: log}
}

// UploadFile handles an admin upload of a single "file" with a "tipo" kind.
func (h *FileHandler) UploadFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": domain.KindUnauthorized})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required", "code": domain.KindValidation})
		return
	}
	defer file.Close()

	info, err := h.media.Upload(c.Request.Context(), domain.MediaUpload{
		Kind:        domain.MediaKind(c.PostForm("tipo")),
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploadedBy:  userID,
		CourseID:    c.PostForm("curso"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"file":    info,
		"url":     domain.MediaURL(info.ID),
	})
}

// UploadFormFile stores the named multipart file, if present, and returns
// its public URL. A missing file yields "" and no error.
func (h *FileHandler) UploadFormFile(c *gin.Context, field string, kind domain.MediaKind, userID uint, courseID string) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", domain.Validation("invalid %s upload", field)
	}
	defer file.Close()

	info, err := h.media.Upload(c.Request.Context(), domain.MediaUpload{
		Kind:        kind,
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploadedBy:  userID,
		CourseID:    courseID,
	})
	if err != nil {
		return "", err
	}
	return domain.MediaURL(info.ID), nil
}

// StreamFile streams stored media. Images are public; other kinds require a
// token, and course media requires an enrollment unless staff asks.
func (h *FileHandler) StreamFile(c *gin.Context) {
	stream, info, err := h.media.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer stream.Close()

	if err := h.authorizeStream(c, info); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.write(c, stream, info, info.Metadata.OriginalName, isInlineType(info.ContentType))
}

func (h *FileHandler) authorizeStream(c *gin.Context, info *domain.FileInfo) error {
	if info.Metadata.Kind == domain.MediaImage {
		return nil
	}
	userID, err := getUserID(c)
	if err != nil {
		return domain.Unauthorized("authentication required")
	}
	role := getUserRole(c)
	if role == domain.RoleAdmin {
		return nil
	}

	switch {
	case info.Metadata.Kind == domain.MediaDiploma:
		if info.Metadata.UploadedBy != userID {
			return domain.Forbidden("this diploma belongs to another student")
		}
	case info.Metadata.CourseID != "" && role != domain.RoleTeacher:
		state, err := h.enrollments.GetStatus(c.Request.Context(), userID, info.Metadata.CourseID)
		if err != nil {
			return err
		}
		if !state.Enrolled {
			return domain.Forbidden("access denied, you must be enrolled in this course")
		}
	}
	return nil
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	if err := h.media.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// DownloadDiploma streams a diploma image to its owner or an admin.
func (h *FileHandler) DownloadDiploma(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": domain.KindUnauthorized})
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	stream, info, diploma, err := h.diplomas.Open(c.Request.Context(), userID, getUserRole(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer stream.Close()

	h.write(c, stream, info, diploma.FileName, false)
}

func isInlineType(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "video/"),
		strings.HasPrefix(contentType, "audio/"),
		strings.HasPrefix(contentType, "image/"),
		contentType == "application/pdf":
		return true
	}
	return false
}

func (h *FileHandler) write(c *gin.Context, stream io.Reader, info *domain.FileInfo, filename string, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	if filename == "" {
		filename = info.Filename
	}

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.Status(http.StatusOK)

	// headers are already sent, so a failed copy can only be logged
	if _, err := io.Copy(c.Writer, stream); err != nil {
		h.log.Warn("media stream interrupted", "file_id", info.ID, "error", err)
	}
}
