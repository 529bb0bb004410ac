package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/internal/learning"
	"aula-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type enrollmentUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	attemptRepo    domain.ExamAttemptRepository
	notifier       domain.Notifier
	events         domain.EventPublisher
	log            *logger.Logger
	now            func() time.Time
}

func NewEnrollmentUsecase(
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	ar domain.ExamAttemptRepository,
	notifier domain.Notifier,
	events domain.EventPublisher,
	log *logger.Logger,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		courseRepo:     cr,
		enrollmentRepo: er,
		attemptRepo:    ar,
		notifier:       notifier,
		events:         events,
		log:            log,
		now:            time.Now,
	}
}

// ========== LIFECYCLE ==========

// Enroll is idempotent: enrolling twice returns the existing enrollment.
func (uc *enrollmentUsecase) Enroll(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, domain.Forbidden("the course is not open for enrollment")
	}

	existing, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := uc.now()
	enrollment := &domain.Enrollment{
		UserID:         userID,
		CourseID:       course.ID,
		Status:         domain.StatusActive,
		LessonProgress: learning.SeedProgress(course),
		EnrolledAt:     now,
		LastAccessAt:   now,
	}
	if err := uc.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// a concurrent request won the race
			return uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, course.ID)
		}
		return nil, err
	}

	if err := uc.courseRepo.AdjustEnrolled(ctx, course.ID, 1); err != nil {
		uc.log.Warn("failed to update enrolled counter", "course_id", course.ID.Hex(), "error", err)
	}
	notify(ctx, uc.notifier, uc.log, userID, "Inscripción exitosa",
		fmt.Sprintf("Te has inscrito en el curso %q. ¡Comienza a aprender!", course.Title),
		"inscripcion", "/cursos/"+course.ID.Hex())
	publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventEnrolled, UserID: userID, CourseID: course.ID.Hex()})

	return enrollment, nil
}

// Unenroll removes the enrollment and every exam attempt in the course, so a
// later enrollment starts from scratch.
func (uc *enrollmentUsecase) Unenroll(ctx context.Context, userID uint, courseID string) error {
	cid, err := domain.ParseID(courseID, "course")
	if err != nil {
		return err
	}
	deleted, err := uc.enrollmentRepo.Delete(ctx, userID, cid)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NotFound("enrollment not found")
	}

	if _, err := uc.attemptRepo.DeleteByUserAndCourse(ctx, userID, cid); err != nil {
		return err
	}
	if err := uc.courseRepo.AdjustEnrolled(ctx, cid, -1); err != nil {
		uc.log.Warn("failed to update enrolled counter", "course_id", courseID, "error", err)
	}
	publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventUnenrolled, UserID: userID, CourseID: courseID})
	return nil
}

func (uc *enrollmentUsecase) ResetProgress(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	course, enrollment, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if err := resetEnrollment(ctx, uc.enrollmentRepo, uc.attemptRepo, course, enrollment, uc.now()); err != nil {
		return nil, err
	}
	publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventProgressReset, UserID: userID, CourseID: courseID})
	return enrollment, nil
}

// resetEnrollment puts the enrollment back to its freshly seeded state and
// drops the attempts, which re-locks every gated section.
func resetEnrollment(ctx context.Context, er domain.EnrollmentRepository, ar domain.ExamAttemptRepository, course *domain.Course, e *domain.Enrollment, now time.Time) error {
	e.LessonProgress = learning.SeedProgress(course)
	e.OverallProgress = 0
	e.Status = domain.StatusActive
	e.LastLesson = nil
	e.CompletedAt = nil
	e.LastAccessAt = now
	if err := er.Update(ctx, e); err != nil {
		return err
	}
	_, err := ar.DeleteByUserAndCourse(ctx, e.UserID, course.ID)
	return err
}

// ========== PROGRESS ==========

func (uc *enrollmentUsecase) UpdateLessonProgress(ctx context.Context, userID uint, courseID, lessonID string, update domain.LessonProgressUpdate) (*domain.Enrollment, error) {
	lid, err := domain.ParseID(lessonID, "lesson")
	if err != nil {
		return nil, err
	}
	course, enrollment, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	index, section, lesson := course.LocateLesson(lid)
	if lesson == nil {
		return nil, domain.NotFound("lesson not found")
	}

	// a completed course is open for review only
	if enrollment.Status == domain.StatusCompleted {
		return enrollment, nil
	}

	attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	passed := learning.PassedExams(attempts)
	if !learning.IsSectionUnlocked(course, index, passed) {
		return nil, domain.Forbidden("pass the previous section exam to unlock this lesson")
	}

	entry := enrollment.ProgressFor(lid)
	if entry == nil {
		// lesson added after the student enrolled
		enrollment.LessonProgress = append(enrollment.LessonProgress, learning.NewLessonProgress(*section, *lesson))
		entry = &enrollment.LessonProgress[len(enrollment.LessonProgress)-1]
	}
	wasCompleted := entry.Completed

	now := uc.now()
	if err := learning.ApplyLessonUpdate(entry, update, learning.LessonNeedsVideo(*section, *lesson), now); err != nil {
		return nil, err
	}
	justCompleted := entry.Completed && !wasCompleted

	enrollment.OverallProgress = learning.Recompute(enrollment.LessonProgress)
	enrollment.LastLesson = &domain.LastAccess{CourseID: course.ID, LessonID: lid}
	enrollment.LastAccessAt = now

	// without a final exam, finishing every lesson and section exam completes the course
	if enrollment.OverallProgress == 100 && course.FinalExam() == nil &&
		learning.AllSectionExamsPassed(course, passed) {
		enrollment.Status = domain.StatusCompleted
		enrollment.CompletedAt = &now
	}

	if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}

	if justCompleted {
		publish(ctx, uc.events, uc.log, domain.Event{
			Type: domain.EventLessonCompleted, UserID: userID, CourseID: courseID,
			Payload: map[string]interface{}{"leccionId": lessonID, "progresoGeneral": enrollment.OverallProgress},
		})
	}
	if enrollment.Status == domain.StatusCompleted {
		notify(ctx, uc.notifier, uc.log, userID, "¡Curso completado!",
			fmt.Sprintf("Has completado el curso %q.", course.Title), "curso_completado", "/cursos/"+courseID)
		publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventCourseCompleted, UserID: userID, CourseID: courseID})
	}
	return enrollment, nil
}

// ========== QUERIES ==========

func (uc *enrollmentUsecase) GetEnrollment(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	_, enrollment, err := uc.load(ctx, userID, courseID)
	return enrollment, err
}

func (uc *enrollmentUsecase) GetStatus(ctx context.Context, userID uint, courseID string) (*domain.EnrollmentState, error) {
	cid, err := domain.ParseID(courseID, "course")
	if err != nil {
		return nil, err
	}
	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, cid)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return &domain.EnrollmentState{Enrolled: false, Status: domain.StatusNotEnrolled}, nil
	}
	return &domain.EnrollmentState{
		Enrolled:        true,
		Status:          enrollment.Status,
		OverallProgress: enrollment.OverallProgress,
		EnrolledAt:      &enrollment.EnrolledAt,
		LastAccessAt:    &enrollment.LastAccessAt,
		EnrollmentID:    objectIDPtr(enrollment.ID),
	}, nil
}

func (uc *enrollmentUsecase) ListMine(ctx context.Context, userID uint) ([]domain.EnrollmentWithCourse, error) {
	enrollments, err := uc.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []domain.EnrollmentWithCourse{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := uc.courseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	out := make([]domain.EnrollmentWithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, domain.EnrollmentWithCourse{Enrollment: e, Course: byID[e.CourseID]})
	}
	return out, nil
}

func (uc *enrollmentUsecase) GetAccess(ctx context.Context, userID uint, courseID string) (*domain.CourseAccess, error) {
	course, enrollment, err := uc.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	access := learning.BuildAccess(course, enrollment, learning.PassedExams(attempts))
	return &access, nil
}

// load fetches the course and the caller's enrollment concurrently. Not
// being enrolled is a permission error, not a missing resource.
func (uc *enrollmentUsecase) load(ctx context.Context, userID uint, courseID string) (*domain.Course, *domain.Enrollment, error) {
	return loadEnrollment(ctx, uc.courseRepo, uc.enrollmentRepo, userID, courseID)
}

func loadEnrollment(ctx context.Context, cr domain.CourseRepository, er domain.EnrollmentRepository, userID uint, courseID string) (*domain.Course, *domain.Enrollment, error) {
	cid, err := domain.ParseID(courseID, "course")
	if err != nil {
		return nil, nil, err
	}

	var (
		course     *domain.Course
		enrollment *domain.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = cr.GetByID(gctx, cid)
		return err
	})
	g.Go(func() error {
		var err error
		enrollment, err = er.GetByUserAndCourse(gctx, userID, cid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if enrollment == nil {
		return nil, nil, domain.Forbidden("you are not enrolled in this course")
	}
	return course, enrollment, nil
}
