package learning

import (
	"aula-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PassedSet holds the exams with at least one aprobado attempt.
type PassedSet map[primitive.ObjectID]bool

func PassedExams(attempts []domain.ExamAttempt) PassedSet {
	passed := make(PassedSet)
	for _, a := range attempts {
		if a.Passed {
			passed[a.ExamID] = true
		}
	}
	return passed
}

// GatingExam returns the exam that must be passed to leave section, or nil.
func GatingExam(course *domain.Course, section domain.Section) *domain.Exam {
	if !section.HasExam {
		return nil
	}
	return course.SectionExam(section.ID)
}

// IsSectionUnlocked reports whether the section at index (in orden order) is
// reachable. Section 0 is always open.
func IsSectionUnlocked(course *domain.Course, index int, passed PassedSet) bool {
	sections := course.OrderedSections()
	if index < 0 || index >= len(sections) {
		return false
	}
	if index == 0 {
		return true
	}
	exam := GatingExam(course, sections[index-1])
	return exam == nil || passed[exam.ID]
}

func AllSectionExamsPassed(course *domain.Course, passed PassedSet) bool {
	for _, s := range course.OrderedSections() {
		if exam := GatingExam(course, s); exam != nil && !passed[exam.ID] {
			return false
		}
	}
	return true
}

func IsFinalUnlocked(course *domain.Course, passed PassedSet, overallProgress int) bool {
	return overallProgress == 100 && AllSectionExamsPassed(course, passed)
}

// BuildAccess computes the unlock map for an enrollment. A completed
// enrollment sees everything open.
func BuildAccess(course *domain.Course, enrollment *domain.Enrollment, passed PassedSet) domain.CourseAccess {
	completed := enrollment.Status == domain.StatusCompleted
	access := domain.CourseAccess{
		CourseID:        course.ID,
		Completed:       completed,
		OverallProgress: enrollment.OverallProgress,
	}

	for i, s := range course.OrderedSections() {
		sa := domain.SectionAccess{
			SectionID: s.ID,
			Unlocked:  completed || IsSectionUnlocked(course, i, passed),
			Total:     len(s.Lessons),
		}
		if exam := GatingExam(course, s); exam != nil {
			sa.HasExam = true
			sa.ExamPassed = passed[exam.ID]
		}
		for _, l := range s.Lessons {
			if p := enrollment.ProgressFor(l.ID); p != nil && p.Completed {
				sa.Completed++
			}
		}
		access.Sections = append(access.Sections, sa)
	}

	if final := course.FinalExam(); final != nil {
		access.HasFinalExam = true
		access.FinalPassed = passed[final.ID]
		access.FinalUnlocked = completed || IsFinalUnlocked(course, passed, enrollment.OverallProgress)
	}
	return access
}
