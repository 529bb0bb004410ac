package http_test

import (
	"context"
	"io"

	"aula-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// ret returns argument i as T, tolerating untyped nil.
func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type MockAuthUsecase struct{ mock.Mock }

func (m *MockAuthUsecase) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	return ret[*domain.User](args, 0), args.Error(1)
}

func (m *MockAuthUsecase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), ret[*domain.User](args, 1), args.Error(2)
}

func (m *MockAuthUsecase) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return ret[*domain.User](args, 0), args.Error(1)
}

func (m *MockAuthUsecase) UpdateProfile(ctx context.Context, userID uint, input domain.ProfileInput) (*domain.User, error) {
	args := m.Called(ctx, userID, input)
	return ret[*domain.User](args, 0), args.Error(1)
}

type MockCourseUsecase struct{ mock.Mock }

func (m *MockCourseUsecase) ListCourses(ctx context.Context, includeInactive bool) ([]domain.Course, error) {
	args := m.Called(ctx, includeInactive)
	return ret[[]domain.Course](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) SearchCourses(ctx context.Context, query string) ([]domain.Course, error) {
	args := m.Called(ctx, query)
	return ret[[]domain.Course](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) GetCourse(ctx context.Context, id string, includeInactive bool) (*domain.Course, error) {
	args := m.Called(ctx, id, includeInactive)
	return ret[*domain.Course](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) CreateCourse(ctx context.Context, input domain.CourseInput) (*domain.Course, error) {
	args := m.Called(ctx, input)
	return ret[*domain.Course](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) UpdateCourse(ctx context.Context, id string, input domain.CourseInput) (*domain.Course, error) {
	args := m.Called(ctx, id, input)
	return ret[*domain.Course](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) DeleteCourse(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCourseUsecase) Reindex(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCourseUsecase) AddSection(ctx context.Context, courseID string, input domain.SectionInput) (*domain.Section, error) {
	args := m.Called(ctx, courseID, input)
	return ret[*domain.Section](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) UpdateSection(ctx context.Context, courseID, sectionID string, input domain.SectionInput) (*domain.Section, error) {
	args := m.Called(ctx, courseID, sectionID, input)
	return ret[*domain.Section](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) DeleteSection(ctx context.Context, courseID, sectionID string) error {
	return m.Called(ctx, courseID, sectionID).Error(0)
}

func (m *MockCourseUsecase) AddLesson(ctx context.Context, courseID, sectionID string, input domain.LessonInput) (*domain.Lesson, error) {
	args := m.Called(ctx, courseID, sectionID, input)
	return ret[*domain.Lesson](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) UpdateLesson(ctx context.Context, courseID, sectionID, lessonID string, input domain.LessonInput) (*domain.Lesson, error) {
	args := m.Called(ctx, courseID, sectionID, lessonID, input)
	return ret[*domain.Lesson](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) DeleteLesson(ctx context.Context, courseID, sectionID, lessonID string) error {
	return m.Called(ctx, courseID, sectionID, lessonID).Error(0)
}

func (m *MockCourseUsecase) AddExam(ctx context.Context, courseID string, input domain.ExamInput) (*domain.Exam, error) {
	args := m.Called(ctx, courseID, input)
	return ret[*domain.Exam](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) UpdateExam(ctx context.Context, courseID, examID string, input domain.ExamInput) (*domain.Exam, error) {
	args := m.Called(ctx, courseID, examID, input)
	return ret[*domain.Exam](args, 0), args.Error(1)
}

func (m *MockCourseUsecase) DeleteExam(ctx context.Context, courseID, examID string) error {
	return m.Called(ctx, courseID, examID).Error(0)
}

type MockEnrollmentUsecase struct{ mock.Mock }

func (m *MockEnrollmentUsecase) Enroll(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.Enrollment](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) Unenroll(ctx context.Context, userID uint, courseID string) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func (m *MockEnrollmentUsecase) ResetProgress(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.Enrollment](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) UpdateLessonProgress(ctx context.Context, userID uint, courseID, lessonID string, update domain.LessonProgressUpdate) (*domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID, lessonID, update)
	return ret[*domain.Enrollment](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) GetEnrollment(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.Enrollment](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) GetStatus(ctx context.Context, userID uint, courseID string) (*domain.EnrollmentState, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.EnrollmentState](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) ListMine(ctx context.Context, userID uint) ([]domain.EnrollmentWithCourse, error) {
	args := m.Called(ctx, userID)
	return ret[[]domain.EnrollmentWithCourse](args, 0), args.Error(1)
}

func (m *MockEnrollmentUsecase) GetAccess(ctx context.Context, userID uint, courseID string) (*domain.CourseAccess, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.CourseAccess](args, 0), args.Error(1)
}

type MockExamUsecase struct{ mock.Mock }

func (m *MockExamUsecase) GetSectionExam(ctx context.Context, userID uint, courseID, sectionID string) (*domain.StudentExam, error) {
	args := m.Called(ctx, userID, courseID, sectionID)
	return ret[*domain.StudentExam](args, 0), args.Error(1)
}

func (m *MockExamUsecase) GetFinalExam(ctx context.Context, userID uint, courseID string) (*domain.StudentExam, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.StudentExam](args, 0), args.Error(1)
}

func (m *MockExamUsecase) Submit(ctx context.Context, userID uint, courseID, examID string, answers []domain.Answer) (*domain.ExamResult, error) {
	args := m.Called(ctx, userID, courseID, examID, answers)
	return ret[*domain.ExamResult](args, 0), args.Error(1)
}

func (m *MockExamUsecase) ListResults(ctx context.Context, userID uint, courseID string) ([]domain.ExamAttempt, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[[]domain.ExamAttempt](args, 0), args.Error(1)
}

type MockDiplomaUsecase struct{ mock.Mock }

func (m *MockDiplomaUsecase) Issue(ctx context.Context, userID uint, course *domain.Course) (*domain.Diploma, error) {
	args := m.Called(ctx, userID, course)
	return ret[*domain.Diploma](args, 0), args.Error(1)
}

func (m *MockDiplomaUsecase) ListMine(ctx context.Context, userID uint) ([]domain.Diploma, error) {
	args := m.Called(ctx, userID)
	return ret[[]domain.Diploma](args, 0), args.Error(1)
}

func (m *MockDiplomaUsecase) GetForCourse(ctx context.Context, userID uint, courseID string) (*domain.Diploma, error) {
	args := m.Called(ctx, userID, courseID)
	return ret[*domain.Diploma](args, 0), args.Error(1)
}

func (m *MockDiplomaUsecase) Open(ctx context.Context, userID uint, role domain.Role, id uint) (io.ReadCloser, *domain.FileInfo, *domain.Diploma, error) {
	args := m.Called(ctx, userID, role, id)
	return ret[io.ReadCloser](args, 0), ret[*domain.FileInfo](args, 1), ret[*domain.Diploma](args, 2), args.Error(3)
}

type MockMediaUsecase struct{ mock.Mock }

func (m *MockMediaUsecase) Upload(ctx context.Context, upload domain.MediaUpload) (*domain.FileInfo, error) {
	args := m.Called(ctx, upload)
	return ret[*domain.FileInfo](args, 0), args.Error(1)
}

func (m *MockMediaUsecase) Open(ctx context.Context, id string) (io.ReadCloser, *domain.FileInfo, error) {
	args := m.Called(ctx, id)
	return ret[io.ReadCloser](args, 0), ret[*domain.FileInfo](args, 1), args.Error(2)
}

func (m *MockMediaUsecase) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
