package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/xuri/excelize/v2"
)

const (
	progressSheet = "Progreso"
	examSheet     = "Examenes"
)

type reportUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	attemptRepo    domain.ExamAttemptRepository
	userRepo       domain.UserRepository
	log            *logger.Logger
}

func NewReportUsecase(
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	ar domain.ExamAttemptRepository,
	ur domain.UserRepository,
	log *logger.Logger,
) domain.ReportUsecase {
	return &reportUsecase{courseRepo: cr, enrollmentRepo: er, attemptRepo: ar, userRepo: ur, log: log}
}

// CourseProgressReport builds an xlsx workbook with one row per enrollment
// and one row per exam attempt.
func (uc *reportUsecase) CourseProgressReport(ctx context.Context, courseID string) ([]byte, string, error) {
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, "", err
	}
	enrollments, err := uc.enrollmentRepo.GetByCourseID(ctx, course.ID)
	if err != nil {
		return nil, "", err
	}

	userIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	users, err := uc.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, "", err
	}
	byUser := make(map[uint]domain.User, len(users))
	for _, u := range users {
		byUser[u.ID] = u
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			uc.log.Warn("failed to close report workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(examSheet); err != nil {
		return nil, "", err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"182B54"}},
	})
	if err != nil {
		return nil, "", err
	}

	progressRows := [][]interface{}{{
		"Estudiante", "Email", "Estado", "Progreso (%)", "Lecciones completadas",
		"Fecha inscripción", "Último acceso", "Fecha completado",
	}}
	examRows := [][]interface{}{{"Estudiante", "Examen", "Tipo", "Intento", "Porcentaje", "Aprobado", "Fecha"}}

	titles := make(map[string]string, len(course.Exams))
	for _, e := range course.Exams {
		titles[e.ID.Hex()] = e.Title
	}

	for _, e := range enrollments {
		u := byUser[e.UserID]
		name := u.FullName()
		if name == "" {
			name = fmt.Sprintf("usuario %d", e.UserID)
		}
		done := 0
		for _, p := range e.LessonProgress {
			if p.Completed {
				done++
			}
		}
		progressRows = append(progressRows, []interface{}{
			name, u.Email, string(e.Status), e.OverallProgress,
			fmt.Sprintf("%d/%d", done, len(e.LessonProgress)),
			formatDate(&e.EnrolledAt), formatDate(&e.LastAccessAt), formatDate(e.CompletedAt),
		})

		attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, e.UserID, course.ID)
		if err != nil {
			return nil, "", err
		}
		for _, a := range attempts {
			passed := "No"
			if a.Passed {
				passed = "Sí"
			}
			examRows = append(examRows, []interface{}{
				name, titles[a.ExamID.Hex()], string(a.ExamType), a.Attempt, a.Percentage, passed, formatDate(&a.SubmittedAt),
			})
		}
	}

	if err := writeRows(f, progressSheet, progressRows, header); err != nil {
		return nil, "", err
	}
	if err := writeRows(f, examSheet, examRows, header); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "progreso-" + slugify(course.Title) + ".xlsx", nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 22)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "curso"
	}
	return out
}
