package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"aula-backend/internal/diploma"
	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"
)

type diplomaUsecase struct {
	diplomaRepo    domain.DiplomaRepository
	userRepo       domain.UserRepository
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	storage        domain.MediaStorage
	log            *logger.Logger
	now            func() time.Time
}

func NewDiplomaUsecase(
	dr domain.DiplomaRepository,
	ur domain.UserRepository,
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	storage domain.MediaStorage,
	log *logger.Logger,
) domain.DiplomaUsecase {
	return &diplomaUsecase{
		diplomaRepo:    dr,
		userRepo:       ur,
		courseRepo:     cr,
		enrollmentRepo: er,
		storage:        storage,
		log:            log,
		now:            time.Now,
	}
}

func downloadURL(d *domain.Diploma) *domain.Diploma {
	d.DownloadURL = fmt.Sprintf("/api/v1/diplomas/%d/download", d.ID)
	return d
}

// Issue renders and stores the diploma once per student and course; later
// calls return the stored one.
func (uc *diplomaUsecase) Issue(ctx context.Context, userID uint, course *domain.Course) (*domain.Diploma, error) {
	courseID := course.ID.Hex()
	existing, err := uc.diplomaRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return downloadURL(existing), nil
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	issuedAt := uc.now()
	img, err := diploma.Render(diploma.Data{
		StudentName: user.FullName(),
		CourseTitle: course.Title,
		IssuedAt:    issuedAt,
		Serial:      fmt.Sprintf("%d-%s", userID, strings.ToUpper(courseID[len(courseID)-6:])),
	})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("diploma-%d-%s.png", userID, courseID)
	info, err := uc.storage.Put(ctx, domain.MediaUpload{
		Kind:        domain.MediaDiploma,
		Reader:      bytes.NewReader(img),
		Filename:    fileName,
		ContentType: "image/png",
		Size:        int64(len(img)),
		UploadedBy:  userID,
		CourseID:    courseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store diploma: %w", err)
	}

	record := &domain.Diploma{
		UserID:      userID,
		CourseID:    courseID,
		CourseTitle: course.Title,
		StudentName: user.FullName(),
		FileID:      info.ID,
		FileName:    fileName,
		IssuedAt:    issuedAt,
	}
	if err := uc.diplomaRepo.Create(ctx, record); err != nil {
		if delErr := uc.storage.Delete(ctx, info.ID); delErr != nil {
			uc.log.Warn("failed to remove orphan diploma file", "file_id", info.ID, "error", delErr)
		}
		if errors.Is(err, domain.ErrDuplicate) {
			existing, err := uc.diplomaRepo.GetByUserAndCourse(ctx, userID, courseID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return downloadURL(existing), nil
			}
		}
		return nil, err
	}

	uc.log.Info("diploma issued", "user_id", userID, "course_id", courseID, "diploma_id", record.ID)
	return downloadURL(record), nil
}

func (uc *diplomaUsecase) ListMine(ctx context.Context, userID uint) ([]domain.Diploma, error) {
	diplomas, err := uc.diplomaRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range diplomas {
		downloadURL(&diplomas[i])
	}
	return diplomas, nil
}

// GetForCourse returns the diploma for a course, issuing it when the course
// is completed but no diploma was stored yet.
func (uc *diplomaUsecase) GetForCourse(ctx context.Context, userID uint, courseID string) (*domain.Diploma, error) {
	cid, err := domain.ParseID(courseID, "course")
	if err != nil {
		return nil, err
	}
	existing, err := uc.diplomaRepo.GetByUserAndCourse(ctx, userID, cid.Hex())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return downloadURL(existing), nil
	}

	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, cid)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status != domain.StatusCompleted {
		return nil, domain.NotFound("no diploma for this course")
	}
	course, err := uc.courseRepo.GetByID(ctx, cid)
	if err != nil {
		return nil, err
	}
	issued, err := uc.Issue(ctx, userID, course)
	if err != nil {
		return nil, err
	}
	if enrollment.DiplomaID == nil {
		enrollment.DiplomaID = &issued.ID
		if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
			uc.log.Warn("failed to link diploma to enrollment", "user_id", userID, "course_id", courseID, "error", err)
		}
	}
	return issued, nil
}

// Open streams the diploma image to its owner or an admin.
func (uc *diplomaUsecase) Open(ctx context.Context, userID uint, role domain.Role, id uint) (io.ReadCloser, *domain.FileInfo, *domain.Diploma, error) {
	d, err := uc.diplomaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if d.UserID != userID && role != domain.RoleAdmin {
		return nil, nil, nil, domain.Forbidden("this diploma belongs to another student")
	}
	rc, info, err := uc.storage.Get(ctx, d.FileID)
	if err != nil {
		return nil, nil, nil, err
	}
	return rc, info, downloadURL(d), nil
}
