// Package seed loads demo users and a course catalog from YAML and creates
// them through the usecases, so fixtures pass the same validation as admin
// requests.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoCatalog []byte

type Catalog struct {
	Users   []User   `yaml:"usuarios"`
	Courses []Course `yaml:"cursos"`
}

type User struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"nombre"`
	LastName  string `yaml:"apellido"`
	Role      string `yaml:"rol"`
}

type Course struct {
	Title         string    `yaml:"titulo"`
	Description   string    `yaml:"descripcion"`
	Image         string    `yaml:"imagen"`
	Category      string    `yaml:"categoria"`
	Level         string    `yaml:"nivel"`
	Language      string    `yaml:"idioma"`
	TotalDuration float64   `yaml:"duracionTotal"`
	Teacher       Teacher   `yaml:"profesor"`
	Sections      []Section `yaml:"secciones"`
	FinalExam     *Exam     `yaml:"examenFinal"`
}

type Teacher struct {
	Name        string `yaml:"nombre"`
	Avatar      string `yaml:"avatar"`
	Description string `yaml:"descripcion"`
}

type Section struct {
	Title         string   `yaml:"titulo"`
	Description   string   `yaml:"descripcion"`
	RequiresVideo *bool    `yaml:"requiereVideo"`
	Lessons       []Lesson `yaml:"lecciones"`
	Exam          *Exam    `yaml:"examen"`
}

type Lesson struct {
	Title    string `yaml:"titulo"`
	Content  string `yaml:"contenido"`
	VideoURL string `yaml:"urlVideo"`
	AudioURL string `yaml:"urlAudio"`
	FileURL  string `yaml:"urlArchivo"`
	Duration int    `yaml:"duracion"`
}

type Exam struct {
	Title           string     `yaml:"titulo"`
	PassPercentage  float64    `yaml:"porcentajeAprobacion"`
	AllowedAttempts int        `yaml:"intentosPermitidos"`
	Questions       []Question `yaml:"preguntas"`
}

type Question struct {
	Text    string   `yaml:"pregunta"`
	Type    string   `yaml:"tipo"`
	Points  float64  `yaml:"puntos"`
	Options []Option `yaml:"opciones"`
}

type Option struct {
	Text    string `yaml:"texto"`
	Correct bool   `yaml:"correcta"`
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing seed catalog: %w", err)
	}
	return &c, nil
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed catalog: %w", err)
	}
	return Parse(data)
}

// Demo returns the built-in development catalog.
func Demo() (*Catalog, error) {
	return Parse(demoCatalog)
}

type Seeder struct {
	users   domain.UserUsecase
	courses domain.CourseUsecase
	log     *logger.Logger
}

func NewSeeder(users domain.UserUsecase, courses domain.CourseUsecase, log *logger.Logger) *Seeder {
	return &Seeder{users: users, courses: courses, log: log}
}

// Run creates missing users and courses. Existing emails and course titles
// are left untouched, so running it on every start is safe.
func (s *Seeder) Run(ctx context.Context, catalog *Catalog) error {
	for _, u := range catalog.Users {
		if err := s.seedUser(ctx, u); err != nil {
			return err
		}
	}

	existing, err := s.courses.ListCourses(ctx, true)
	if err != nil {
		return fmt.Errorf("listing courses: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, c := range existing {
		titles[strings.ToLower(c.Title)] = true
	}

	for _, c := range catalog.Courses {
		if titles[strings.ToLower(strings.TrimSpace(c.Title))] {
			continue
		}
		if err := s.seedCourse(ctx, c); err != nil {
			return fmt.Errorf("seeding course %q: %w", c.Title, err)
		}
	}
	return nil
}

func (s *Seeder) seedUser(ctx context.Context, u User) error {
	role, ok := domain.ParseRole(u.Role)
	if !ok {
		role = domain.RoleStudent
	}
	_, err := s.users.CreateUser(ctx, domain.UserInput{
		Email:     &u.Email,
		Password:  &u.Password,
		FirstName: &u.FirstName,
		LastName:  &u.LastName,
		Role:      &role,
	})
	switch {
	case err == nil:
		s.log.Info("seeded user", "email", u.Email, "role", role)
	case domain.IsKind(err, domain.KindConflict):
	default:
		return fmt.Errorf("seeding user %s: %w", u.Email, err)
	}
	return nil
}

func (s *Seeder) seedCourse(ctx context.Context, c Course) error {
	in := domain.CourseInput{
		Title:       &c.Title,
		Description: &c.Description,
		Image:       &c.Image,
		Teacher:     &domain.Teacher{Name: c.Teacher.Name, Avatar: c.Teacher.Avatar, Description: c.Teacher.Description},
		Category:    &c.Category,
	}
	if c.Level != "" {
		level := domain.Level(c.Level)
		in.Level = &level
	}
	if c.Language != "" {
		in.Language = &c.Language
	}
	if c.TotalDuration > 0 {
		in.TotalDuration = &c.TotalDuration
	}

	course, err := s.courses.CreateCourse(ctx, in)
	if err != nil {
		return err
	}
	courseID := course.ID.Hex()

	for _, sec := range c.Sections {
		section, err := s.courses.AddSection(ctx, courseID, domain.SectionInput{
			Title:         &sec.Title,
			Description:   &sec.Description,
			RequiresVideo: sec.RequiresVideo,
		})
		if err != nil {
			return err
		}
		sectionID := section.ID.Hex()

		for _, l := range sec.Lessons {
			in := domain.LessonInput{Title: &l.Title, Content: &l.Content}
			if l.VideoURL != "" {
				in.VideoURL = &l.VideoURL
			}
			if l.AudioURL != "" {
				in.AudioURL = &l.AudioURL
			}
			if l.FileURL != "" {
				in.FileURL = &l.FileURL
			}
			if l.Duration > 0 {
				in.Duration = &l.Duration
			}
			if _, err := s.courses.AddLesson(ctx, courseID, sectionID, in); err != nil {
				return fmt.Errorf("lesson %q: %w", l.Title, err)
			}
		}

		if sec.Exam != nil {
			if _, err := s.courses.AddExam(ctx, courseID, examInput(*sec.Exam, domain.ExamSection, &sectionID)); err != nil {
				return fmt.Errorf("exam for section %q: %w", sec.Title, err)
			}
		}
	}

	if c.FinalExam != nil {
		if _, err := s.courses.AddExam(ctx, courseID, examInput(*c.FinalExam, domain.ExamFinal, nil)); err != nil {
			return fmt.Errorf("final exam: %w", err)
		}
	}

	s.log.Info("seeded course", "course_id", courseID, "title", c.Title)
	return nil
}

func examInput(e Exam, kind domain.ExamType, sectionID *string) domain.ExamInput {
	in := domain.ExamInput{
		Title:     &e.Title,
		Type:      &kind,
		SectionID: sectionID,
		Questions: make([]domain.QuestionInput, 0, len(e.Questions)),
	}
	if e.PassPercentage > 0 {
		in.PassPercentage = &e.PassPercentage
	}
	if e.AllowedAttempts > 0 {
		in.AllowedAttempts = &e.AllowedAttempts
	}
	for _, q := range e.Questions {
		qi := domain.QuestionInput{Text: q.Text, Type: domain.QuestionType(q.Type)}
		if q.Points > 0 {
			points := q.Points
			qi.Points = &points
		}
		for _, o := range q.Options {
			qi.Options = append(qi.Options, domain.OptionInput{Text: o.Text, Correct: o.Correct})
		}
		in.Questions = append(in.Questions, qi)
	}
	return in
}
