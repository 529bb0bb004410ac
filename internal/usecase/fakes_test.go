package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clone deep-copies documents the way a round trip through Mongo would.
func clone[T any](t testing.TB, v *T) *T {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, bson.Unmarshal(raw, &out))
	return &out
}

// ========== COURSES ==========

type fakeCourseRepo struct {
	t       testing.TB
	mu      sync.Mutex
	courses map[primitive.ObjectID]*domain.Course
}

func newFakeCourseRepo(t testing.TB, courses ...*domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{t: t, courses: map[primitive.ObjectID]*domain.Course{}}
	for _, c := range courses {
		r.courses[c.ID] = clone(t, c)
	}
	return r
}

func (r *fakeCourseRepo) Create(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.courses[c.ID] = clone(r.t, c)
	return nil
}

func (r *fakeCourseRepo) Update(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return domain.NotFound("course not found")
	}
	r.courses[c.ID] = clone(r.t, c)
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, domain.NotFound("course not found")
	}
	return clone(r.t, c), nil
}

func (r *fakeCourseRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, id := range ids {
		if c, ok := r.courses[id]; ok {
			out = append(out, *clone(r.t, c))
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) GetAll(_ context.Context, includeInactive bool) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		if includeInactive || c.Active {
			out = append(out, *clone(r.t, c))
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Search(_ context.Context, query string) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		if c.Active && strings.Contains(strings.ToLower(c.Title), strings.ToLower(query)) {
			out = append(out, *clone(r.t, c))
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) AdjustEnrolled(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return domain.NotFound("course not found")
	}
	if c.EnrolledStudents+delta >= 0 {
		c.EnrolledStudents += delta
	}
	return nil
}

func (r *fakeCourseRepo) get(id primitive.ObjectID) *domain.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.t, r.courses[id])
}

type fakeIndex struct {
	ids     []string
	err     error
	indexed map[string]bool
}

func (i *fakeIndex) Index(_ context.Context, c *domain.Course) error {
	if i.indexed == nil {
		i.indexed = map[string]bool{}
	}
	i.indexed[c.ID.Hex()] = true
	return nil
}

func (i *fakeIndex) Remove(_ context.Context, id string) error {
	delete(i.indexed, id)
	return nil
}

func (i *fakeIndex) Search(context.Context, string) ([]string, error) {
	return i.ids, i.err
}

// ========== ENROLLMENTS & ATTEMPTS ==========

type enrollmentKey struct {
	user   uint
	course primitive.ObjectID
}

type fakeEnrollmentRepo struct {
	t    testing.TB
	mu   sync.Mutex
	rows map[enrollmentKey]*domain.Enrollment
}

func newFakeEnrollmentRepo(t testing.TB) *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{t: t, rows: map[enrollmentKey]*domain.Enrollment{}}
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, e *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := enrollmentKey{e.UserID, e.CourseID}
	if _, ok := r.rows[k]; ok {
		return domain.ErrDuplicate
	}
	e.ID = primitive.NewObjectID()
	r.rows[k] = clone(r.t, e)
	return nil
}

func (r *fakeEnrollmentRepo) GetByUserAndCourse(_ context.Context, userID uint, courseID primitive.ObjectID) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[enrollmentKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	return clone(r.t, e), nil
}

func (r *fakeEnrollmentRepo) GetByUserID(_ context.Context, userID uint) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for k, e := range r.rows {
		if k.user == userID {
			out = append(out, *clone(r.t, e))
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetByCourseID(_ context.Context, courseID primitive.ObjectID) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for k, e := range r.rows {
		if k.course == courseID {
			out = append(out, *clone(r.t, e))
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) Update(_ context.Context, e *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := enrollmentKey{e.UserID, e.CourseID}
	if _, ok := r.rows[k]; !ok {
		return domain.NotFound("enrollment not found")
	}
	r.rows[k] = clone(r.t, e)
	return nil
}

func (r *fakeEnrollmentRepo) Delete(_ context.Context, userID uint, courseID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := enrollmentKey{userID, courseID}
	_, ok := r.rows[k]
	delete(r.rows, k)
	return ok, nil
}

type fakeAttemptRepo struct {
	mu   sync.Mutex
	rows []domain.ExamAttempt
}

func (r *fakeAttemptRepo) Create(_ context.Context, a *domain.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.UserID == a.UserID && x.ExamID == a.ExamID && x.Attempt == a.Attempt {
			return domain.ErrDuplicate
		}
	}
	a.ID = primitive.NewObjectID()
	r.rows = append(r.rows, *a)
	return nil
}

func (r *fakeAttemptRepo) GetByUserAndExam(_ context.Context, userID uint, examID primitive.ObjectID) ([]domain.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExamAttempt
	for _, x := range r.rows {
		if x.UserID == userID && x.ExamID == examID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) GetByUserAndCourse(_ context.Context, userID uint, courseID primitive.ObjectID) ([]domain.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExamAttempt
	for _, x := range r.rows {
		if x.UserID == userID && x.CourseID == courseID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) DeleteByUserAndCourse(_ context.Context, userID uint, courseID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	var n int64
	for _, x := range r.rows {
		if x.UserID == userID && x.CourseID == courseID {
			n++
			continue
		}
		kept = append(kept, x)
	}
	r.rows = kept
	return n, nil
}

// ========== USERS & DIPLOMAS ==========

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]*domain.User{}}
	for i := range users {
		u := users[i]
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, ok := r.users[id]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	cp := *x
	return &cp, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetAll(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, x := range r.users {
		out = append(out, *x)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.users[id].LastLogin = &now
	return nil
}

type fakeDiplomaRepo struct {
	mu   sync.Mutex
	rows []domain.Diploma
}

func (r *fakeDiplomaRepo) Create(_ context.Context, d *domain.Diploma) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.UserID == d.UserID && x.CourseID == d.CourseID {
			return domain.ErrDuplicate
		}
	}
	d.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, *d)
	return nil
}

func (r *fakeDiplomaRepo) GetByID(_ context.Context, id uint) (*domain.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.ID == id {
			cp := x
			return &cp, nil
		}
	}
	return nil, domain.NotFound("diploma not found")
}

func (r *fakeDiplomaRepo) GetByUserID(_ context.Context, userID uint) ([]domain.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Diploma
	for _, x := range r.rows {
		if x.UserID == userID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r *fakeDiplomaRepo) GetByUserAndCourse(_ context.Context, userID uint, courseID string) (*domain.Diploma, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.UserID == userID && x.CourseID == courseID {
			cp := x
			return &cp, nil
		}
	}
	return nil, nil
}

// ========== SIDE EFFECTS ==========

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	info  map[string]domain.FileInfo
	seq   int
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}, info: map[string]domain.FileInfo{}}
}

func (s *memStorage) Put(_ context.Context, u domain.MediaUpload) (*domain.FileInfo, error) {
	data, err := io.ReadAll(u.Reader)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("file-%d", s.seq)
	info := domain.FileInfo{
		ID: id, Filename: u.Filename, ContentType: u.ContentType, Size: int64(len(data)),
		Metadata: domain.FileMetadata{OriginalName: u.Filename, UploadedBy: u.UploadedBy, Kind: u.Kind, CourseID: u.CourseID},
	}
	s.files[id] = data
	s.info[id] = info
	return &info, nil
}

func (s *memStorage) Get(_ context.Context, id string) (io.ReadCloser, *domain.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[id]
	if !ok {
		return nil, nil, domain.NotFound("file not found")
	}
	info := s.info[id]
	return io.NopCloser(bytes.NewReader(data)), &info, nil
}

func (s *memStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return domain.NotFound("file not found")
	}
	delete(s.files, id)
	delete(s.info, id)
	return nil
}

type sentNotification struct {
	userID uint
	kind   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, _, _, kind, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{userID, kind})
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ========== FIXTURES ==========

func boolPtr(b bool) *bool                             { return &b }
func intPtr(i int) *int                                { return &i }
func strPtr(s string) *string                          { return &s }
func floatPtr(f float64) *float64                      { return &f }
func oidPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

// courseFixture is a two-section course: the first section holds a video
// lesson and is gated by a section exam, the second holds a text lesson. A
// final exam closes the course.
type courseFixture struct {
	course        *domain.Course
	videoLesson   primitive.ObjectID
	textLesson    primitive.ObjectID
	sectionExam   primitive.ObjectID
	finalExam     primitive.ObjectID
	rightOption   primitive.ObjectID
	wrongOption   primitive.ObjectID
	sectionQ      primitive.ObjectID
	finalQ        primitive.ObjectID
	finalRightOpt primitive.ObjectID
}

func newCourseFixture() courseFixture {
	f := courseFixture{
		videoLesson:   primitive.NewObjectID(),
		textLesson:    primitive.NewObjectID(),
		sectionExam:   primitive.NewObjectID(),
		finalExam:     primitive.NewObjectID(),
		rightOption:   primitive.NewObjectID(),
		wrongOption:   primitive.NewObjectID(),
		sectionQ:      primitive.NewObjectID(),
		finalQ:        primitive.NewObjectID(),
		finalRightOpt: primitive.NewObjectID(),
	}
	s1, s2 := primitive.NewObjectID(), primitive.NewObjectID()
	f.course = &domain.Course{
		ID:     primitive.NewObjectID(),
		Title:  "Fundamentos de Go",
		Active: true,
		Sections: []domain.Section{
			{
				ID: s1, Title: "Inicio", Order: 1, RequiresVideo: true, HasExam: true,
				Lessons: []domain.Lesson{{ID: f.videoLesson, Title: "Bienvenida", Type: domain.LessonVideo, VideoURL: "/api/v1/media/v1", Order: 1}},
			},
			{
				ID: s2, Title: "Tipos", Order: 2, RequiresVideo: false,
				Lessons: []domain.Lesson{{ID: f.textLesson, Title: "Structs", Type: domain.LessonText, Order: 1}},
			},
		},
		Exams: []domain.Exam{
			{
				ID: f.sectionExam, Title: "Control 1", Type: domain.ExamSection, SectionID: oidPtr(s1),
				PassPercentage: 70, AllowedAttempts: 2, Active: true,
				Questions: []domain.Question{{
					ID: f.sectionQ, Text: "¿Go compila?", Type: domain.QuestionMultipleChoice, Points: 10, Order: 1,
					Options: []domain.Option{{ID: f.rightOption, Text: "Sí", Correct: true}, {ID: f.wrongOption, Text: "No"}},
				}},
			},
			{
				ID: f.finalExam, Title: "Final", Type: domain.ExamFinal,
				PassPercentage: 60, AllowedAttempts: 3, Active: true,
				Questions: []domain.Question{{
					ID: f.finalQ, Text: "Go tiene goroutines", Type: domain.QuestionTrueFalse, Points: 5, Order: 1,
					Options: []domain.Option{{ID: f.finalRightOpt, Text: "Verdadero", Correct: true}, {ID: primitive.NewObjectID(), Text: "Falso"}},
				}},
			},
		},
	}
	return f
}

func (f courseFixture) answer(option primitive.ObjectID) []domain.Answer {
	return []domain.Answer{{QuestionID: f.sectionQ, OptionID: oidPtr(option)}}
}

type harness struct {
	courses     *fakeCourseRepo
	enrollments *fakeEnrollmentRepo
	attempts    *fakeAttemptRepo
	users       *fakeUserRepo
	diplomaRepo *fakeDiplomaRepo
	storage     *memStorage
	notifier    *recordingNotifier
	events      *recordingPublisher

	enrollment domain.EnrollmentUsecase
	exam       domain.ExamUsecase
	diploma    domain.DiplomaUsecase
}

func newHarness(t *testing.T, courses ...*domain.Course) *harness {
	h := &harness{
		courses:     newFakeCourseRepo(t, courses...),
		enrollments: newFakeEnrollmentRepo(t),
		attempts:    &fakeAttemptRepo{},
		users:       newFakeUserRepo(domain.User{ID: 7, Email: "ana@aula.test", FirstName: "Ana", LastName: "Ruiz", Role: domain.RoleStudent, Active: true}),
		diplomaRepo: &fakeDiplomaRepo{},
		storage:     newMemStorage(),
		notifier:    &recordingNotifier{},
		events:      &recordingPublisher{},
	}
	log := logger.NewNop()
	h.enrollment = NewEnrollmentUsecase(h.courses, h.enrollments, h.attempts, h.notifier, h.events, log)
	h.diploma = NewDiplomaUsecase(h.diplomaRepo, h.users, h.courses, h.enrollments, h.storage, log)
	h.exam = NewExamUsecase(h.courses, h.enrollments, h.attempts, h.diploma, h.notifier, h.events, log)
	return h
}
