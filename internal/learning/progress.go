// Package learning holds the pure course rules: lesson progress, section
// gating and exam grading. Nothing in here touches storage.
package learning

import (
	"math"
	"time"

	"aula-backend/internal/domain"
)

var ErrVideoRequired = domain.Validation("the lesson video must be watched before marking it completed")

// Recompute returns round(100 * completed / total). An empty list is 0, not 100.
func Recompute(progress []domain.LessonProgress) int {
	if len(progress) == 0 {
		return 0
	}
	done := 0
	for _, p := range progress {
		if p.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(progress))))
}

// EffectiveRequiresVideo resolves the lesson override against the section default.
func EffectiveRequiresVideo(section domain.Section, lesson domain.Lesson) bool {
	if lesson.RequiresVideo != nil {
		return *lesson.RequiresVideo
	}
	return section.RequiresVideo
}

// LessonNeedsVideo is true only when the requirement applies and the lesson
// actually carries a video to watch.
func LessonNeedsVideo(section domain.Section, lesson domain.Lesson) bool {
	return EffectiveRequiresVideo(section, lesson) &&
		lesson.Type == domain.LessonVideo &&
		lesson.VideoURL != ""
}

// SeedProgress builds one incomplete entry per lesson, in course order.
func SeedProgress(course *domain.Course) []domain.LessonProgress {
	seeded := make([]domain.LessonProgress, 0, course.LessonCount())
	for _, s := range course.OrderedSections() {
		for _, l := range s.OrderedLessons() {
			seeded = append(seeded, NewLessonProgress(s, l))
		}
	}
	return seeded
}

func NewLessonProgress(section domain.Section, lesson domain.Lesson) domain.LessonProgress {
	return domain.LessonProgress{
		LessonID:       lesson.ID,
		VideoCompleted: !LessonNeedsVideo(section, lesson),
	}
}

// ApplyLessonUpdate mutates entry in place. The entry is left untouched when
// the update is rejected.
func ApplyLessonUpdate(entry *domain.LessonProgress, update domain.LessonProgressUpdate, needsVideo bool, now time.Time) error {
	if update.Progress != nil && (*update.Progress < 0 || *update.Progress > 100) {
		return domain.Validation("progreso must be between 0 and 100")
	}

	videoDone := entry.VideoCompleted
	if update.VideoCompleted != nil {
		videoDone = *update.VideoCompleted
	}
	if update.Completed != nil && *update.Completed && needsVideo && !videoDone {
		return ErrVideoRequired
	}

	entry.VideoCompleted = videoDone
	if update.Progress != nil {
		entry.Progress = *update.Progress
	}
	if update.Completed != nil {
		if *update.Completed {
			entry.Completed = true
			entry.Progress = 100
			if entry.CompletedAt == nil {
				t := now
				entry.CompletedAt = &t
			}
		} else {
			entry.Completed = false
			entry.CompletedAt = nil
		}
	}
	return nil
}
