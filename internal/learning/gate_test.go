package learning_test

import (
	"testing"

	"aula-backend/internal/domain"
	"aula-backend/internal/learning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// gatedCourse builds three sections; the first two carry section exams.
func gatedCourse() (*domain.Course, []primitive.ObjectID) {
	course := &domain.Course{ID: primitive.NewObjectID()}
	var examIDs []primitive.ObjectID
	for i := 0; i < 3; i++ {
		s := domain.Section{
			ID:      primitive.NewObjectID(),
			Order:   i + 1,
			HasExam: i < 2,
			Lessons: []domain.Lesson{{ID: primitive.NewObjectID(), Type: domain.LessonText}},
		}
		course.Sections = append(course.Sections, s)
		if s.HasExam {
			sid := s.ID
			exam := domain.Exam{ID: primitive.NewObjectID(), Type: domain.ExamSection, SectionID: &sid, Active: true}
			course.Exams = append(course.Exams, exam)
			examIDs = append(examIDs, exam.ID)
		}
	}
	course.Exams = append(course.Exams, domain.Exam{ID: primitive.NewObjectID(), Type: domain.ExamFinal, Active: true})
	return course, examIDs
}

func TestIsSectionUnlocked(t *testing.T) {
	course, exams := gatedCourse()

	tests := []struct {
		name   string
		index  int
		passed learning.PassedSet
		want   bool
	}{
		{"first section always open", 0, nil, true},
		{"second locked until first exam passed", 1, learning.PassedSet{}, false},
		{"second open after first exam", 1, learning.PassedSet{exams[0]: true}, true},
		{"third needs second exam", 2, learning.PassedSet{exams[0]: true}, false},
		{"third open after second exam", 2, learning.PassedSet{exams[0]: true, exams[1]: true}, true},
		{"out of range", 5, learning.PassedSet{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, learning.IsSectionUnlocked(course, tt.index, tt.passed))
		})
	}
}

func TestIsSectionUnlocked_SectionWithoutExamDoesNotGate(t *testing.T) {
	course, _ := gatedCourse()
	// flag set but no exam defined for it
	course.Sections[2].HasExam = true
	course.Sections = append(course.Sections, domain.Section{ID: primitive.NewObjectID(), Order: 4})

	assert.True(t, learning.IsSectionUnlocked(course, 3, learning.PassedSet{}))
}

func TestIsSectionUnlocked_InactiveExamDoesNotGate(t *testing.T) {
	course, _ := gatedCourse()
	course.Exams[0].Active = false

	assert.True(t, learning.IsSectionUnlocked(course, 1, learning.PassedSet{}))
}

func TestIsFinalUnlocked(t *testing.T) {
	course, exams := gatedCourse()
	all := learning.PassedSet{exams[0]: true, exams[1]: true}

	assert.False(t, learning.IsFinalUnlocked(course, all, 99))
	assert.False(t, learning.IsFinalUnlocked(course, learning.PassedSet{exams[0]: true}, 100))
	assert.True(t, learning.IsFinalUnlocked(course, all, 100))
}

func TestPassedExams(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	passed := learning.PassedExams([]domain.ExamAttempt{
		{ExamID: a, Attempt: 1, Passed: false},
		{ExamID: a, Attempt: 2, Passed: true},
		{ExamID: b, Attempt: 1, Passed: false},
	})

	assert.True(t, passed[a])
	assert.False(t, passed[b])
}

func TestBuildAccess(t *testing.T) {
	course, exams := gatedCourse()
	enrollment := &domain.Enrollment{
		Status:         domain.StatusActive,
		LessonProgress: learning.SeedProgress(course),
	}
	enrollment.LessonProgress[0].Completed = true
	enrollment.OverallProgress = learning.Recompute(enrollment.LessonProgress)

	access := learning.BuildAccess(course, enrollment, learning.PassedSet{exams[0]: true})

	require.Len(t, access.Sections, 3)
	assert.True(t, access.Sections[0].Unlocked)
	assert.True(t, access.Sections[0].ExamPassed)
	assert.Equal(t, 1, access.Sections[0].Completed)
	assert.True(t, access.Sections[1].Unlocked)
	assert.False(t, access.Sections[2].Unlocked)
	assert.True(t, access.HasFinalExam)
	assert.False(t, access.FinalUnlocked)

	t.Run("completed course bypasses gates", func(t *testing.T) {
		enrollment.Status = domain.StatusCompleted
		access := learning.BuildAccess(course, enrollment, learning.PassedSet{})
		for _, s := range access.Sections {
			assert.True(t, s.Unlocked)
		}
		assert.True(t, access.FinalUnlocked)
	})
}
