package usecase

import (
	"context"
	"testing"

	"aula-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const student uint = 7

func TestEnroll_SeedsProgressAndIsIdempotent(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()

	e, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, e.Status)
	require.Len(t, e.LessonProgress, 2)
	assert.Equal(t, f.videoLesson, e.LessonProgress[0].LessonID)
	assert.False(t, e.LessonProgress[0].VideoCompleted, "video lesson starts unwatched")
	assert.True(t, e.LessonProgress[1].VideoCompleted, "text lesson needs no video")

	again, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	assert.Equal(t, e.ID, again.ID)
	assert.Equal(t, 1, h.courses.get(f.course.ID).EnrolledStudents)
	assert.Equal(t, []string{"inscripcion"}, h.notifier.kinds())
	assert.Equal(t, []domain.EventType{domain.EventEnrolled}, h.events.types())
}

func TestEnroll_Errors(t *testing.T) {
	f := newCourseFixture()
	f.course.Active = false
	h := newHarness(t, f.course)
	ctx := context.Background()

	_, err := h.enrollment.Enroll(ctx, student, f.course.ID.Hex())
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = h.enrollment.Enroll(ctx, student, "65f000000000000000000099")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = h.enrollment.Enroll(ctx, student, "nope")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestUnenrollThenEnroll_StartsFresh(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()

	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{VideoCompleted: boolPtr(true), Completed: boolPtr(true)})
	require.NoError(t, err)
	_, err = h.exam.Submit(ctx, student, cid, f.sectionExam.Hex(), f.answer(f.rightOption))
	require.NoError(t, err)

	require.NoError(t, h.enrollment.Unenroll(ctx, student, cid))
	assert.Empty(t, h.attempts.rows)
	assert.Equal(t, 0, h.courses.get(f.course.ID).EnrolledStudents)

	e, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	assert.Equal(t, 0, e.OverallProgress)
	for _, p := range e.LessonProgress {
		assert.False(t, p.Completed)
	}

	access, err := h.enrollment.GetAccess(ctx, student, cid)
	require.NoError(t, err)
	assert.False(t, access.Sections[1].Unlocked, "second section is locked again")

	err = h.enrollment.Unenroll(ctx, student, "65f000000000000000000099")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestUpdateLessonProgress_VideoRule(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)

	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(true)})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	e, err := h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{VideoCompleted: boolPtr(true), Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 50, e.OverallProgress)
	require.NotNil(t, e.LastLesson)
	assert.Equal(t, f.videoLesson, e.LastLesson.LessonID)
	assert.Contains(t, h.events.types(), domain.EventLessonCompleted)
}

func TestUpdateLessonProgress_LockedSection(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)

	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.textLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(true)})
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = h.exam.Submit(ctx, student, cid, f.sectionExam.Hex(), f.answer(f.rightOption))
	require.NoError(t, err)
	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.textLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(true)})
	assert.NoError(t, err)
}

func TestUpdateLessonProgress_NotEnrolled(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)

	_, err := h.enrollment.UpdateLessonProgress(context.Background(), student, f.course.ID.Hex(), f.videoLesson.Hex(),
		domain.LessonProgressUpdate{Progress: intPtr(30)})
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestUpdateLessonProgress_CompletesCourseWithoutFinalExam(t *testing.T) {
	f := newCourseFixture()
	f.course.Exams = f.course.Exams[:1] // drop the final exam
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)

	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{VideoCompleted: boolPtr(true), Completed: boolPtr(true)})
	require.NoError(t, err)
	_, err = h.exam.Submit(ctx, student, cid, f.sectionExam.Hex(), f.answer(f.rightOption))
	require.NoError(t, err)

	e, err := h.enrollment.UpdateLessonProgress(ctx, student, cid, f.textLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 100, e.OverallProgress)
	assert.Equal(t, domain.StatusCompleted, e.Status)
	assert.NotNil(t, e.CompletedAt)
	assert.Contains(t, h.events.types(), domain.EventCourseCompleted)
}

func TestUpdateLessonProgress_CompletedCourseIsReadOnly(t *testing.T) {
	f := newCourseFixture()
	f.course.Exams = f.course.Exams[:1]
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{VideoCompleted: boolPtr(true), Completed: boolPtr(true)})
	require.NoError(t, err)
	_, err = h.exam.Submit(ctx, student, cid, f.sectionExam.Hex(), f.answer(f.rightOption))
	require.NoError(t, err)
	done, err := h.enrollment.UpdateLessonProgress(ctx, student, cid, f.textLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)

	e, err := h.enrollment.UpdateLessonProgress(ctx, student, cid, f.textLesson.Hex(),
		domain.LessonProgressUpdate{Completed: boolPtr(false), Progress: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, 100, e.OverallProgress)
	assert.Equal(t, domain.StatusCompleted, e.Status)

	stored, err := h.enrollment.GetEnrollment(ctx, student, cid)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.OverallProgress)
	for _, p := range stored.LessonProgress {
		assert.True(t, p.Completed)
	}

	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, "65f000000000000000000099", domain.LessonProgressUpdate{})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestResetProgress(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()
	_, err := h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	_, err = h.enrollment.UpdateLessonProgress(ctx, student, cid, f.videoLesson.Hex(),
		domain.LessonProgressUpdate{VideoCompleted: boolPtr(true), Completed: boolPtr(true)})
	require.NoError(t, err)

	e, err := h.enrollment.ResetProgress(ctx, student, cid)
	require.NoError(t, err)
	assert.Equal(t, 0, e.OverallProgress)
	assert.Nil(t, e.LastLesson)
	assert.False(t, e.LessonProgress[0].VideoCompleted)
}

func TestGetStatus(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()
	cid := f.course.ID.Hex()

	st, err := h.enrollment.GetStatus(ctx, student, cid)
	require.NoError(t, err)
	assert.False(t, st.Enrolled)
	assert.Equal(t, domain.StatusNotEnrolled, st.Status)

	_, err = h.enrollment.Enroll(ctx, student, cid)
	require.NoError(t, err)
	st, err = h.enrollment.GetStatus(ctx, student, cid)
	require.NoError(t, err)
	assert.True(t, st.Enrolled)
	assert.Equal(t, domain.StatusActive, st.Status)
	assert.NotNil(t, st.EnrollmentID)
}

func TestListMine(t *testing.T) {
	f := newCourseFixture()
	h := newHarness(t, f.course)
	ctx := context.Background()

	list, err := h.enrollment.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.enrollment.Enroll(ctx, student, f.course.ID.Hex())
	require.NoError(t, err)
	list, err = h.enrollment.ListMine(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Course)
	assert.Equal(t, "Fundamentos de Go", list[0].Course.Title)
}
