package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/internal/learning"
	"aula-backend/pkg/logger"
)

const maxAttemptNumberRetries = 2

type examUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	attemptRepo    domain.ExamAttemptRepository
	diplomas       domain.DiplomaIssuer
	notifier       domain.Notifier
	events         domain.EventPublisher
	log            *logger.Logger
	now            func() time.Time
}

func NewExamUsecase(
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	ar domain.ExamAttemptRepository,
	diplomas domain.DiplomaIssuer,
	notifier domain.Notifier,
	events domain.EventPublisher,
	log *logger.Logger,
) domain.ExamUsecase {
	return &examUsecase{
		courseRepo:     cr,
		enrollmentRepo: er,
		attemptRepo:    ar,
		diplomas:       diplomas,
		notifier:       notifier,
		events:         events,
		log:            log,
		now:            time.Now,
	}
}

// ========== FETCH ==========

func (uc *examUsecase) GetSectionExam(ctx context.Context, userID uint, courseID, sectionID string) (*domain.StudentExam, error) {
	sid, err := domain.ParseID(sectionID, "section")
	if err != nil {
		return nil, err
	}
	course, enrollment, err := loadEnrollment(ctx, uc.courseRepo, uc.enrollmentRepo, userID, courseID)
	if err != nil {
		return nil, err
	}
	if course.SectionByID(sid) == nil {
		return nil, domain.NotFound("section not found")
	}
	exam := course.SectionExam(sid)
	if exam == nil {
		return nil, domain.NotFound("this section has no exam")
	}
	if err := uc.checkUnlocked(ctx, course, enrollment, exam); err != nil {
		return nil, err
	}
	out := exam.ForStudent()
	return &out, nil
}

func (uc *examUsecase) GetFinalExam(ctx context.Context, userID uint, courseID string) (*domain.StudentExam, error) {
	course, enrollment, err := loadEnrollment(ctx, uc.courseRepo, uc.enrollmentRepo, userID, courseID)
	if err != nil {
		return nil, err
	}
	exam := course.FinalExam()
	if exam == nil {
		return nil, domain.NotFound("this course has no final exam")
	}
	if err := uc.checkUnlocked(ctx, course, enrollment, exam); err != nil {
		return nil, err
	}
	out := exam.ForStudent()
	return &out, nil
}

// checkUnlocked applies the gate to an exam: a section exam opens with its
// section, the final exam once everything before it is done.
func (uc *examUsecase) checkUnlocked(ctx context.Context, course *domain.Course, enrollment *domain.Enrollment, exam *domain.Exam) error {
	if enrollment.Status == domain.StatusCompleted {
		return nil
	}
	attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, enrollment.UserID, course.ID)
	if err != nil {
		return err
	}
	passed := learning.PassedExams(attempts)

	if exam.Type == domain.ExamFinal {
		if !learning.IsFinalUnlocked(course, passed, enrollment.OverallProgress) {
			return domain.Forbidden("complete every lesson and section exam before the final exam")
		}
		return nil
	}

	index := -1
	for i, s := range course.OrderedSections() {
		if exam.SectionID != nil && s.ID == *exam.SectionID {
			index = i
			break
		}
	}
	if index < 0 {
		return domain.NotFound("section not found")
	}
	if !learning.IsSectionUnlocked(course, index, passed) {
		return domain.Forbidden("pass the previous section exam to unlock this one")
	}
	return nil
}

// ========== SUBMIT ==========

// Submit grades an attempt and records it. When the last allowed attempt
// fails, the whole course progress is reset and the result says so.
func (uc *examUsecase) Submit(ctx context.Context, userID uint, courseID, examID string, answers []domain.Answer) (*domain.ExamResult, error) {
	eid, err := domain.ParseID(examID, "exam")
	if err != nil {
		return nil, err
	}
	course, enrollment, err := loadEnrollment(ctx, uc.courseRepo, uc.enrollmentRepo, userID, courseID)
	if err != nil {
		return nil, err
	}
	exam := course.ExamByID(eid)
	if exam == nil || !exam.Active {
		return nil, domain.NotFound("exam not found")
	}
	if enrollment.Status == domain.StatusCompleted {
		return nil, domain.Conflict("the course is already completed")
	}

	previous, err := uc.attemptRepo.GetByUserAndExam(ctx, userID, eid)
	if err != nil {
		return nil, err
	}
	if anyPassed(previous) {
		return nil, domain.Conflict("this exam has already been passed")
	}
	if err := uc.checkUnlocked(ctx, course, enrollment, exam); err != nil {
		return nil, err
	}

	graded := learning.Grade(*exam, answers)
	now := uc.now()
	attempt := &domain.ExamAttempt{
		UserID:      userID,
		CourseID:    course.ID,
		ExamID:      eid,
		ExamType:    exam.Type,
		SectionID:   exam.SectionID,
		Score:       graded.Score,
		MaxScore:    graded.MaxScore,
		Percentage:  graded.Percentage,
		Passed:      graded.Passed,
		Answers:     answers,
		SubmittedAt: now,
	}
	// the unique (usuario, examen, intento) index rejects a number taken by a
	// concurrent submission; recount and try the next one
	for try := 0; ; try++ {
		attempt.Attempt = len(previous) + 1
		err := uc.attemptRepo.Create(ctx, attempt)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		if try == maxAttemptNumberRetries {
			return nil, domain.Conflict("another submission for this exam was recorded first, reload and try again")
		}
		if previous, err = uc.attemptRepo.GetByUserAndExam(ctx, userID, eid); err != nil {
			return nil, err
		}
		if anyPassed(previous) {
			return nil, domain.Conflict("this exam has already been passed")
		}
	}

	result := &domain.ExamResult{
		ExamID:            eid,
		Attempt:           attempt.Attempt,
		AllowedAttempts:   exam.AllowedAttempts,
		RemainingAttempts: learning.RemainingAttempts(exam.AllowedAttempts, attempt.Attempt),
		Score:             graded.Score,
		MaxScore:          graded.MaxScore,
		Percentage:        graded.Percentage,
		PassPercentage:    exam.PassPercentage,
		Passed:            graded.Passed,
	}
	publish(ctx, uc.events, uc.log, domain.Event{
		Type: domain.EventExamSubmitted, UserID: userID, CourseID: courseID,
		Payload: map[string]interface{}{
			"examen":     examID,
			"tipo":       exam.Type,
			"intento":    attempt.Attempt,
			"porcentaje": graded.Percentage,
			"aprobado":   graded.Passed,
		},
	})

	switch {
	case learning.ExhaustsAttempts(graded.Passed, attempt.Attempt, exam.AllowedAttempts):
		if err := resetEnrollment(ctx, uc.enrollmentRepo, uc.attemptRepo, course, enrollment, now); err != nil {
			return nil, err
		}
		result.Reset = true
		result.RemainingAttempts = exam.AllowedAttempts
		result.Enrollment = enrollment
		notify(ctx, uc.notifier, uc.log, userID, "Progreso reiniciado",
			fmt.Sprintf("Agotaste los intentos de %q. Tu progreso en %q se reinició.", exam.Title, course.Title),
			"reinicio", "/cursos/"+courseID)
		publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventProgressReset, UserID: userID, CourseID: courseID})

	case graded.Passed && exam.Type == domain.ExamFinal:
		diploma, err := uc.completeCourse(ctx, course, enrollment, now)
		if err != nil {
			return nil, err
		}
		result.Diploma = diploma
		result.Enrollment = enrollment
	}
	return result, nil
}

func (uc *examUsecase) completeCourse(ctx context.Context, course *domain.Course, enrollment *domain.Enrollment, now time.Time) (*domain.Diploma, error) {
	enrollment.Status = domain.StatusCompleted
	enrollment.CompletedAt = &now
	enrollment.LastAccessAt = now

	// a failed render leaves the course completed; the diploma is issued
	// again on the next lookup
	diploma, err := uc.diplomas.Issue(ctx, enrollment.UserID, course)
	if err != nil {
		uc.log.Error("failed to issue diploma", "user_id", enrollment.UserID, "course_id", course.ID.Hex(), "error", err)
	} else {
		enrollment.DiplomaID = &diploma.ID
	}
	if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}

	courseID := course.ID.Hex()
	notify(ctx, uc.notifier, uc.log, enrollment.UserID, "¡Curso completado!",
		fmt.Sprintf("Aprobaste el examen final de %q. Tu diploma está disponible.", course.Title),
		"diploma", "/diplomas")
	publish(ctx, uc.events, uc.log, domain.Event{Type: domain.EventCourseCompleted, UserID: enrollment.UserID, CourseID: courseID})
	return diploma, nil
}

// ========== RESULTS ==========

func (uc *examUsecase) ListResults(ctx context.Context, userID uint, courseID string) ([]domain.ExamAttempt, error) {
	_, _, err := loadEnrollment(ctx, uc.courseRepo, uc.enrollmentRepo, userID, courseID)
	if err != nil {
		return nil, err
	}
	cid, _ := domain.ParseID(courseID, "course")
	attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, userID, cid)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].SubmittedAt.After(attempts[j].SubmittedAt) })
	return attempts, nil
}

func anyPassed(attempts []domain.ExamAttempt) bool {
	for _, a := range attempts {
		if a.Passed {
			return true
		}
	}
	return false
}
