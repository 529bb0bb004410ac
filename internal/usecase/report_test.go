package usecase

import (
	"bytes"
	"context"
	"testing"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCourseProgressReport(t *testing.T) {
	f, h := enrolled(t)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.exam.Submit(ctx, student, cid, f.sectionExam.Hex(), f.answer(f.rightOption))
	require.NoError(t, err)

	uc := NewReportUsecase(h.courses, h.enrollments, h.attempts, h.users, logger.NewNop())
	data, name, err := uc.CourseProgressReport(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, "progreso-fundamentos-de-go.xlsx", name)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(progressSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Estudiante", rows[0][0])
	assert.Equal(t, "Ana Ruiz", rows[1][0])
	assert.Equal(t, "ana@aula.test", rows[1][1])
	assert.Equal(t, string(domain.StatusActive), rows[1][2])
	assert.Equal(t, "0/2", rows[1][4])

	exams, err := wb.GetRows(examSheet)
	require.NoError(t, err)
	require.Len(t, exams, 2)
	assert.Equal(t, "Control 1", exams[1][1])
	assert.Equal(t, "Sí", exams[1][5])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "excel-b-sico-2024", slugify("Excel Básico 2024!"))
	assert.Equal(t, "curso", slugify("¡¡!!"))
}
