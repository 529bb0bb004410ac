package learning_test

import (
	"testing"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/internal/learning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func lessonsDone(total, done int) []domain.LessonProgress {
	out := make([]domain.LessonProgress, total)
	for i := range out {
		out[i].LessonID = primitive.NewObjectID()
		out[i].Completed = i < done
	}
	return out
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name  string
		total int
		done  int
		want  int
	}{
		{"no lessons is zero", 0, 0, 0},
		{"two of five", 5, 2, 40},
		{"one of three rounds down", 3, 1, 33},
		{"two of three rounds up", 3, 2, 67},
		{"all done", 4, 4, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, learning.Recompute(lessonsDone(tt.total, tt.done)))
		})
	}
}

func TestLessonNeedsVideo(t *testing.T) {
	videoSection := domain.Section{RequiresVideo: true}
	openSection := domain.Section{RequiresVideo: false}
	video := domain.Lesson{Type: domain.LessonVideo, VideoURL: "/api/v1/media/abc"}

	tests := []struct {
		name    string
		section domain.Section
		lesson  domain.Lesson
		want    bool
	}{
		{"inherits section requirement", videoSection, video, true},
		{"section without requirement", openSection, video, false},
		{"lesson override off", videoSection, domain.Lesson{Type: domain.LessonVideo, VideoURL: "x", RequiresVideo: boolPtr(false)}, false},
		{"lesson override on", openSection, domain.Lesson{Type: domain.LessonVideo, VideoURL: "x", RequiresVideo: boolPtr(true)}, true},
		{"text lesson never needs video", videoSection, domain.Lesson{Type: domain.LessonText}, false},
		{"video lesson without url", videoSection, domain.Lesson{Type: domain.LessonVideo}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, learning.LessonNeedsVideo(tt.section, tt.lesson))
		})
	}
}

func TestSeedProgress_FollowsCourseOrder(t *testing.T) {
	l1 := domain.Lesson{ID: primitive.NewObjectID(), Type: domain.LessonVideo, VideoURL: "v", Order: 2}
	l2 := domain.Lesson{ID: primitive.NewObjectID(), Type: domain.LessonText, Order: 1}
	l3 := domain.Lesson{ID: primitive.NewObjectID(), Type: domain.LessonVideo, VideoURL: "v", Order: 1}
	course := &domain.Course{Sections: []domain.Section{
		{ID: primitive.NewObjectID(), Order: 2, RequiresVideo: true, Lessons: []domain.Lesson{l3}},
		{ID: primitive.NewObjectID(), Order: 1, RequiresVideo: true, Lessons: []domain.Lesson{l1, l2}},
	}}

	seeded := learning.SeedProgress(course)

	require.Len(t, seeded, 3)
	assert.Equal(t, []primitive.ObjectID{l2.ID, l1.ID, l3.ID},
		[]primitive.ObjectID{seeded[0].LessonID, seeded[1].LessonID, seeded[2].LessonID})
	assert.True(t, seeded[0].VideoCompleted, "text lesson has nothing to watch")
	assert.False(t, seeded[1].VideoCompleted)
	for _, p := range seeded {
		assert.False(t, p.Completed)
		assert.Zero(t, p.Progress)
	}
}

func TestApplyLessonUpdate(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("completing without watching video is rejected", func(t *testing.T) {
		entry := domain.LessonProgress{}
		err := learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Completed: boolPtr(true)}, true, now)

		assert.ErrorIs(t, err, learning.ErrVideoRequired)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.False(t, entry.Completed)
	})

	t.Run("video and completion in one update", func(t *testing.T) {
		entry := domain.LessonProgress{}
		err := learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{
			VideoCompleted: boolPtr(true),
			Completed:      boolPtr(true),
		}, true, now)

		require.NoError(t, err)
		assert.True(t, entry.Completed)
		assert.True(t, entry.VideoCompleted)
		assert.Equal(t, 100, entry.Progress)
		require.NotNil(t, entry.CompletedAt)
		assert.Equal(t, now, *entry.CompletedAt)
	})

	t.Run("lesson without video completes directly", func(t *testing.T) {
		entry := domain.LessonProgress{VideoCompleted: true}
		require.NoError(t, learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Completed: boolPtr(true)}, false, now))
		assert.True(t, entry.Completed)
	})

	t.Run("completion date is kept on repeat", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		entry := domain.LessonProgress{Completed: true, VideoCompleted: true, CompletedAt: &earlier}
		require.NoError(t, learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Completed: boolPtr(true)}, true, now))
		assert.Equal(t, earlier, *entry.CompletedAt)
	})

	t.Run("uncompleting clears the date", func(t *testing.T) {
		entry := domain.LessonProgress{Completed: true, CompletedAt: &now}
		require.NoError(t, learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Completed: boolPtr(false)}, false, now))
		assert.False(t, entry.Completed)
		assert.Nil(t, entry.CompletedAt)
	})

	t.Run("progress out of range", func(t *testing.T) {
		entry := domain.LessonProgress{}
		err := learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Progress: intPtr(120)}, false, now)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Zero(t, entry.Progress)
	})

	t.Run("partial progress", func(t *testing.T) {
		entry := domain.LessonProgress{}
		require.NoError(t, learning.ApplyLessonUpdate(&entry, domain.LessonProgressUpdate{Progress: intPtr(35)}, true, now))
		assert.Equal(t, 35, entry.Progress)
		assert.False(t, entry.Completed)
	})
}
