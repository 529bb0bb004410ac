package domain

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ========== REPOSITORIES ==========

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdateLastLogin(ctx context.Context, userID uint) error
}

type DiplomaRepository interface {
	Create(ctx context.Context, diploma *Diploma) error
	GetByID(ctx context.Context, id uint) (*Diploma, error)
	GetByUserID(ctx context.Context, userID uint) ([]Diploma, error)
	// GetByUserAndCourse returns (nil, nil) when no diploma exists.
	GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*Diploma, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *Course) error
	// Update replaces the whole document; concurrent admin edits are last-write-wins.
	Update(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Course, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Course, error)
	GetAll(ctx context.Context, includeInactive bool) ([]Course, error)
	Search(ctx context.Context, query string) ([]Course, error)
	AdjustEnrolled(ctx context.Context, id primitive.ObjectID, delta int) error
}

// CourseIndex is a full-text index over the catalog.
type CourseIndex interface {
	Index(ctx context.Context, course *Course) error
	Remove(ctx context.Context, id string) error
	// Search returns matching course ids; ErrIndexUnavailable means fall back to the store.
	Search(ctx context.Context, query string) ([]string, error)
}

type EnrollmentRepository interface {
	// Create returns ErrDuplicate when (usuario, curso) already exists.
	Create(ctx context.Context, enrollment *Enrollment) error
	// GetByUserAndCourse returns (nil, nil) when not enrolled.
	GetByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) (*Enrollment, error)
	GetByUserID(ctx context.Context, userID uint) ([]Enrollment, error)
	GetByCourseID(ctx context.Context, courseID primitive.ObjectID) ([]Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	Delete(ctx context.Context, userID uint, courseID primitive.ObjectID) (bool, error)
}

type ExamAttemptRepository interface {
	// Create returns ErrDuplicate when (usuario, examen, intento) already exists.
	Create(ctx context.Context, attempt *ExamAttempt) error
	GetByUserAndExam(ctx context.Context, userID uint, examID primitive.ObjectID) ([]ExamAttempt, error)
	GetByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) ([]ExamAttempt, error)
	DeleteByUserAndCourse(ctx context.Context, userID uint, courseID primitive.ObjectID) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByUserID(ctx context.Context, userID uint) ([]Notification, error)
	MarkRead(ctx context.Context, userID uint, id primitive.ObjectID) (bool, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID uint, id primitive.ObjectID) (bool, error)
}

type MediaStorage interface {
	Put(ctx context.Context, upload MediaUpload) (*FileInfo, error)
	Get(ctx context.Context, id string) (io.ReadCloser, *FileInfo, error)
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ========== COLLABORATORS ==========

// DiplomaIssuer creates (or returns the existing) diploma for a completed course.
type DiplomaIssuer interface {
	Issue(ctx context.Context, userID uint, course *Course) (*Diploma, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uint, title, message, kind, link string) error
}

// ========== USECASES ==========

type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetProfile(ctx context.Context, userID uint) (*User, error)
	UpdateProfile(ctx context.Context, userID uint, input ProfileInput) (*User, error)
}

type UserUsecase interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, input UserInput) (*User, error)
	UpdateUser(ctx context.Context, id uint, input UserInput) (*User, error)
	DeactivateUser(ctx context.Context, id uint) error
}

type CourseUsecase interface {
	ListCourses(ctx context.Context, includeInactive bool) ([]Course, error)
	SearchCourses(ctx context.Context, query string) ([]Course, error)
	GetCourse(ctx context.Context, id string, includeInactive bool) (*Course, error)
	CreateCourse(ctx context.Context, input CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, id string, input CourseInput) (*Course, error)
	DeleteCourse(ctx context.Context, id string) error
	Reindex(ctx context.Context) (int, error)

	AddSection(ctx context.Context, courseID string, input SectionInput) (*Section, error)
	UpdateSection(ctx context.Context, courseID, sectionID string, input SectionInput) (*Section, error)
	DeleteSection(ctx context.Context, courseID, sectionID string) error

	AddLesson(ctx context.Context, courseID, sectionID string, input LessonInput) (*Lesson, error)
	UpdateLesson(ctx context.Context, courseID, sectionID, lessonID string, input LessonInput) (*Lesson, error)
	DeleteLesson(ctx context.Context, courseID, sectionID, lessonID string) error

	AddExam(ctx context.Context, courseID string, input ExamInput) (*Exam, error)
	UpdateExam(ctx context.Context, courseID, examID string, input ExamInput) (*Exam, error)
	DeleteExam(ctx context.Context, courseID, examID string) error
}

type EnrollmentUsecase interface {
	Enroll(ctx context.Context, userID uint, courseID string) (*Enrollment, error)
	Unenroll(ctx context.Context, userID uint, courseID string) error
	ResetProgress(ctx context.Context, userID uint, courseID string) (*Enrollment, error)
	UpdateLessonProgress(ctx context.Context, userID uint, courseID, lessonID string, update LessonProgressUpdate) (*Enrollment, error)
	GetEnrollment(ctx context.Context, userID uint, courseID string) (*Enrollment, error)
	GetStatus(ctx context.Context, userID uint, courseID string) (*EnrollmentState, error)
	ListMine(ctx context.Context, userID uint) ([]EnrollmentWithCourse, error)
	GetAccess(ctx context.Context, userID uint, courseID string) (*CourseAccess, error)
}

type ExamUsecase interface {
	GetSectionExam(ctx context.Context, userID uint, courseID, sectionID string) (*StudentExam, error)
	GetFinalExam(ctx context.Context, userID uint, courseID string) (*StudentExam, error)
	Submit(ctx context.Context, userID uint, courseID, examID string, answers []Answer) (*ExamResult, error)
	ListResults(ctx context.Context, userID uint, courseID string) ([]ExamAttempt, error)
}

type DiplomaUsecase interface {
	DiplomaIssuer
	ListMine(ctx context.Context, userID uint) ([]Diploma, error)
	GetForCourse(ctx context.Context, userID uint, courseID string) (*Diploma, error)
	Open(ctx context.Context, userID uint, role Role, id uint) (io.ReadCloser, *FileInfo, *Diploma, error)
}

type NotificationUsecase interface {
	Notifier
	List(ctx context.Context, userID uint) ([]Notification, error)
	MarkRead(ctx context.Context, userID uint, id string) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, userID uint, id string) error
}

type MediaUsecase interface {
	Upload(ctx context.Context, upload MediaUpload) (*FileInfo, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *FileInfo, error)
	Delete(ctx context.Context, id string) error
}

type ReportUsecase interface {
	CourseProgressReport(ctx context.Context, courseID string) ([]byte, string, error)
}
