package domain

import (
	"io"
	"time"
)

// Command objects built by the delivery layer from validated request DTOs.
// Pointer fields are optional: nil means "leave unchanged" on update.

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
	Password  *string
	Photo     *string
}

type UserInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Role      *Role
	Active    *bool
}

type CourseInput struct {
	Title         *string
	Description   *string
	Image         *string
	Teacher       *Teacher
	Category      *string
	Level         *Level
	Language      *string
	TotalDuration *float64
	Price         *float64
	Active        *bool
	PublishedAt   *time.Time
}

type SectionInput struct {
	Title         *string
	Description   *string
	Order         *int
	RequiresVideo *bool
	HasExam       *bool
}

type LessonInput struct {
	Title         *string
	Description   *string
	Content       *string
	Type          *LessonType
	VideoURL      *string
	AudioURL      *string
	FileURL       *string
	Duration      *int
	Order         *int
	RequiresVideo *bool
	// InheritVideo clears the lesson override so the section flag applies.
	InheritVideo   bool
	RemoveVideo    bool
	RemoveMaterial bool
}

type OptionInput struct {
	Text    string
	Correct bool
}

type QuestionInput struct {
	Text    string
	Type    QuestionType
	Points  *float64
	Order   *int
	Options []OptionInput
}

type ExamInput struct {
	Title           *string
	Description     *string
	Type            *ExamType
	SectionID       *string
	Questions       []QuestionInput // nil keeps the current questions
	PassPercentage  *float64
	AllowedAttempts *int
	TimeLimit       *int
	Active          *bool
}

type LessonProgressUpdate struct {
	Completed      *bool
	VideoCompleted *bool
	Progress       *int
}

type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaImage    MediaKind = "imagen"
	MediaMaterial MediaKind = "material"
	MediaDiploma  MediaKind = "diploma"
)

type MediaUpload struct {
	Kind        MediaKind
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploadedBy  uint
	CourseID    string
}

// FileInfo describes an object held by MediaStorage.
type FileInfo struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	UploadDate  time.Time    `json:"upload_date"`
	Metadata    FileMetadata `json:"metadata"`
}

type FileMetadata struct {
	OriginalName string    `json:"original_name" bson:"original_name"`
	UploadedBy   uint      `json:"uploaded_by" bson:"uploaded_by"`
	Kind         MediaKind `json:"kind" bson:"kind"`
	CourseID     string    `json:"course_id,omitempty" bson:"course_id,omitempty"`
	ContentType  string    `json:"-" bson:"content_type"`
}

// MediaURL is the path under which stored media is served.
func MediaURL(id string) string {
	return "/api/v1/media/" + id
}

type EventType string

const (
	EventEnrolled        EventType = "enrollment.created"
	EventUnenrolled      EventType = "enrollment.deleted"
	EventProgressReset   EventType = "enrollment.reset"
	EventLessonCompleted EventType = "lesson.completed"
	EventExamSubmitted   EventType = "exam.submitted"
	EventCourseCompleted EventType = "course.completed"
)

type Event struct {
	Type       EventType              `json:"event_type"`
	UserID     uint                   `json:"user_id"`
	CourseID   string                 `json:"course_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
