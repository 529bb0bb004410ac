package domain

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent Role = "estudiante"
	RoleTeacher Role = "profesor"
	RoleAdmin   Role = "admin_dae"
)

// ParseRole accepts the stored role names plus their English aliases.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "estudiante", "student":
		return RoleStudent, true
	case "profesor", "teacher":
		return RoleTeacher, true
	case "admin_dae", "admin":
		return RoleAdmin, true
	}
	return "", false
}

// ========== POSTGRES MODELS ==========

type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"`
	FirstName string     `json:"nombre" gorm:"not null"`
	LastName  string     `json:"apellido" gorm:"not null"`
	Photo     string     `json:"fotoPerfil" gorm:"default:'Pictures/profile.png'"`
	Role      Role       `json:"rol" gorm:"type:varchar(20);default:'estudiante'"`
	Active    bool       `json:"activo" gorm:"default:true"`
	CreatedAt time.Time  `json:"fechaCreacion" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"fechaActualizacion" gorm:"autoUpdateTime"`
	LastLogin *time.Time `json:"ultimoAcceso,omitempty"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Diploma - issued once per (student, course) after the final exam is passed
type Diploma struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"usuario" gorm:"not null;uniqueIndex:idx_diploma_user_course"`
	CourseID    string    `json:"curso" gorm:"type:varchar(24);not null;uniqueIndex:idx_diploma_user_course"`
	CourseTitle string    `json:"tituloCurso"`
	StudentName string    `json:"nombreEstudiante"`
	FileID      string    `json:"archivo"` // media storage id
	FileName    string    `json:"nombreArchivo"`
	IssuedAt    time.Time `json:"fechaEmision" gorm:"autoCreateTime"`

	DownloadURL string `json:"downloadUrl" gorm:"-"`
}

// ========== MONGODB MODELS ==========

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonAudio LessonType = "audio"
	LessonText  LessonType = "texto"
	LessonFile  LessonType = "archivo"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonAudio, LessonText, LessonFile:
		return true
	}
	return false
}

type Lesson struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"titulo" bson:"titulo"`
	Description string             `json:"descripcion,omitempty" bson:"descripcion,omitempty"`
	Content     string             `json:"contenido,omitempty" bson:"contenido,omitempty"`
	Type        LessonType         `json:"tipo" bson:"tipo"`
	VideoURL    string             `json:"urlVideo,omitempty" bson:"urlVideo,omitempty"`
	AudioURL    string             `json:"urlAudio,omitempty" bson:"urlAudio,omitempty"`
	FileURL     string             `json:"urlArchivo,omitempty" bson:"urlArchivo,omitempty"`
	Duration    int                `json:"duracion,omitempty" bson:"duracion,omitempty"` // minutes
	// nil inherits the section flag
	RequiresVideo *bool `json:"requiereVideo,omitempty" bson:"requiereVideo,omitempty"`
	Order         int   `json:"orden" bson:"orden"`
}

type Section struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	Title         string             `json:"titulo" bson:"titulo"`
	Description   string             `json:"descripcion,omitempty" bson:"descripcion,omitempty"`
	Order         int                `json:"orden" bson:"orden"`
	RequiresVideo bool               `json:"requiereVideo" bson:"requiereVideo"`
	Lessons       []Lesson           `json:"lecciones" bson:"lecciones"`
	HasExam       bool               `json:"tieneExamen" bson:"tieneExamen"`
}

// OrderedLessons returns a copy of the lessons sorted by orden.
func (s Section) OrderedLessons() []Lesson {
	lessons := make([]Lesson, len(s.Lessons))
	copy(lessons, s.Lessons)
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
	return lessons
}

type Teacher struct {
	Name        string `json:"nombre" bson:"nombre"`
	Avatar      string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Description string `json:"descripcion,omitempty" bson:"descripcion,omitempty"`
}

type Level string

const (
	LevelBeginner     Level = "Principiante"
	LevelIntermediate Level = "Intermedio"
	LevelAdvanced     Level = "Avanzado"
)

type Course struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title            string             `json:"titulo" bson:"titulo"`
	Description      string             `json:"descripcion" bson:"descripcion"`
	Image            string             `json:"imagen" bson:"imagen"`
	Teacher          Teacher            `json:"profesor" bson:"profesor"`
	Category         string             `json:"categoria" bson:"categoria"`
	Level            Level              `json:"nivel" bson:"nivel"`
	Language         string             `json:"idioma" bson:"idioma"`
	TotalDuration    float64            `json:"duracionTotal" bson:"duracionTotal"` // hours
	Rating           float64            `json:"calificacion" bson:"calificacion"`
	RatingCount      int                `json:"numValoraciones" bson:"numValoraciones"`
	Price            float64            `json:"precio" bson:"precio"`
	Active           bool               `json:"activo" bson:"activo"`
	Sections         []Section          `json:"secciones" bson:"secciones"`
	EnrolledStudents int                `json:"estudiantesInscritos" bson:"estudiantesInscritos"`
	PublishedAt      *time.Time         `json:"fechaPublicacion" bson:"fechaPublicacion"`
	ClosedAt         *time.Time         `json:"fechaCierre" bson:"fechaCierre"`
	CreatedAt        time.Time          `json:"fechaCreacion" bson:"fechaCreacion"`
	UpdatedAt        time.Time          `json:"fechaActualizacion" bson:"fechaActualizacion"`
	Exams            []Exam             `json:"examenes" bson:"examenes"`
}

// OrderedSections returns a copy of the sections sorted by orden.
// Gating indexes always refer to this order.
func (c *Course) OrderedSections() []Section {
	sections := make([]Section, len(c.Sections))
	copy(sections, c.Sections)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	return sections
}

// LocateLesson finds a lesson in the ordered sections and reports the
// index of its section in that order. The index is -1 when not found.
func (c *Course) LocateLesson(lessonID primitive.ObjectID) (int, *Section, *Lesson) {
	sections := c.OrderedSections()
	for i := range sections {
		for j := range sections[i].Lessons {
			if sections[i].Lessons[j].ID == lessonID {
				return i, &sections[i], &sections[i].Lessons[j]
			}
		}
	}
	return -1, nil, nil
}

// SectionByID returns a pointer into c.Sections so callers can mutate it.
func (c *Course) SectionByID(id primitive.ObjectID) *Section {
	for i := range c.Sections {
		if c.Sections[i].ID == id {
			return &c.Sections[i]
		}
	}
	return nil
}

func (s *Section) LessonByID(id primitive.ObjectID) *Lesson {
	for i := range s.Lessons {
		if s.Lessons[i].ID == id {
			return &s.Lessons[i]
		}
	}
	return nil
}

func (c *Course) ExamByID(id primitive.ObjectID) *Exam {
	for i := range c.Exams {
		if c.Exams[i].ID == id {
			return &c.Exams[i]
		}
	}
	return nil
}

// SectionExam returns the active section exam attached to sectionID, if any.
func (c *Course) SectionExam(sectionID primitive.ObjectID) *Exam {
	for i := range c.Exams {
		e := &c.Exams[i]
		if e.Active && e.Type == ExamSection && e.SectionID != nil && *e.SectionID == sectionID {
			return e
		}
	}
	return nil
}

func (c *Course) FinalExam() *Exam {
	for i := range c.Exams {
		if c.Exams[i].Active && c.Exams[i].Type == ExamFinal {
			return &c.Exams[i]
		}
	}
	return nil
}

// WithoutAnswerKey returns a copy safe for students: exams keep their
// metadata but carry no questions.
func (c *Course) WithoutAnswerKey() Course {
	out := *c
	out.Exams = make([]Exam, len(c.Exams))
	for i, e := range c.Exams {
		e.Questions = nil
		out.Exams[i] = e
	}
	return out
}

func (c *Course) LessonCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lessons)
	}
	return n
}

type ExamType string

const (
	ExamSection ExamType = "seccion"
	ExamFinal   ExamType = "final"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "opcion_multiple"
	QuestionTrueFalse      QuestionType = "verdadero_falso"
	QuestionText           QuestionType = "texto"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionText:
		return true
	}
	return false
}

type Option struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Text    string             `json:"texto" bson:"texto"`
	Correct bool               `json:"esCorrecta" bson:"esCorrecta"`
}

type Question struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Text    string             `json:"pregunta" bson:"pregunta"`
	Type    QuestionType       `json:"tipo" bson:"tipo"`
	Points  float64            `json:"puntos" bson:"puntos"`
	Order   int                `json:"orden" bson:"orden"`
	Options []Option           `json:"opciones" bson:"opciones"`
}

type Exam struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id"`
	Title           string              `json:"titulo" bson:"titulo"`
	Description     string              `json:"descripcion" bson:"descripcion"`
	Type            ExamType            `json:"tipo" bson:"tipo"`
	SectionID       *primitive.ObjectID `json:"seccion" bson:"seccion"`
	Questions       []Question          `json:"preguntas" bson:"preguntas"`
	PassPercentage  float64             `json:"porcentajeAprobacion" bson:"porcentajeAprobacion"`
	AllowedAttempts int                 `json:"intentosPermitidos" bson:"intentosPermitidos"`
	TimeLimit       int                 `json:"tiempoLimite" bson:"tiempoLimite"` // minutes, 0 = none
	Active          bool                `json:"activo" bson:"activo"`
	CreatedAt       time.Time           `json:"fechaCreacion" bson:"fechaCreacion"`
}

func (e Exam) MaxScore() float64 {
	total := 0.0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

// ForStudent strips the answer key.
func (e Exam) ForStudent() StudentExam {
	questions := make([]StudentQuestion, 0, len(e.Questions))
	for _, q := range e.Questions {
		opts := make([]StudentOption, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, StudentOption{ID: o.ID, Text: o.Text})
		}
		questions = append(questions, StudentQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Points: q.Points, Order: q.Order, Options: opts})
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return StudentExam{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Type:            e.Type,
		SectionID:       e.SectionID,
		PassPercentage:  e.PassPercentage,
		AllowedAttempts: e.AllowedAttempts,
		TimeLimit:       e.TimeLimit,
		Questions:       questions,
	}
}

type EnrollmentStatus string

const (
	StatusNotEnrolled EnrollmentStatus = "sin_inscribir"
	StatusActive      EnrollmentStatus = "activo"
	StatusCompleted   EnrollmentStatus = "completado"
)

type LessonProgress struct {
	LessonID       primitive.ObjectID `json:"leccionId" bson:"leccionId"`
	Completed      bool               `json:"completado" bson:"completado"`
	VideoCompleted bool               `json:"videoCompletado" bson:"videoCompletado"`
	Progress       int                `json:"progreso" bson:"progreso"`
	CompletedAt    *time.Time         `json:"fechaCompletado" bson:"fechaCompletado"`
}

type LastAccess struct {
	CourseID primitive.ObjectID `json:"cursoId" bson:"cursoId"`
	LessonID primitive.ObjectID `json:"leccionId" bson:"leccionId"`
}

// Enrollment - one per (student, course)
type Enrollment struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID          uint               `json:"usuario" bson:"usuario"`
	CourseID        primitive.ObjectID `json:"curso" bson:"curso"`
	Status          EnrollmentStatus   `json:"estado" bson:"estado"`
	LessonProgress  []LessonProgress   `json:"progresoLecciones" bson:"progresoLecciones"`
	OverallProgress int                `json:"progresoGeneral" bson:"progresoGeneral"`
	LastLesson      *LastAccess        `json:"ultimaLeccionAccedida" bson:"ultimaLeccionAccedida"`
	EnrolledAt      time.Time          `json:"fechaInscripcion" bson:"fechaInscripcion"`
	LastAccessAt    time.Time          `json:"fechaUltimoAcceso" bson:"fechaUltimoAcceso"`
	CompletedAt     *time.Time         `json:"fechaCompletado,omitempty" bson:"fechaCompletado,omitempty"`
	DiplomaID       *uint              `json:"diploma,omitempty" bson:"diploma,omitempty"`
}

func (e *Enrollment) ProgressFor(lessonID primitive.ObjectID) *LessonProgress {
	for i := range e.LessonProgress {
		if e.LessonProgress[i].LessonID == lessonID {
			return &e.LessonProgress[i]
		}
	}
	return nil
}

type Answer struct {
	QuestionID primitive.ObjectID  `json:"preguntaId" bson:"preguntaId"`
	OptionID   *primitive.ObjectID `json:"opcionId,omitempty" bson:"opcionId,omitempty"`
	Response   string              `json:"respuesta,omitempty" bson:"respuesta,omitempty"`
}

// ExamAttempt - immutable once written
type ExamAttempt struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	UserID      uint                `json:"usuario" bson:"usuario"`
	CourseID    primitive.ObjectID  `json:"curso" bson:"curso"`
	ExamID      primitive.ObjectID  `json:"examen" bson:"examen"`
	ExamType    ExamType            `json:"tipo" bson:"tipo"`
	SectionID   *primitive.ObjectID `json:"seccion,omitempty" bson:"seccion,omitempty"`
	Attempt     int                 `json:"intento" bson:"intento"`
	Score       float64             `json:"puntajeTotal" bson:"puntajeTotal"`
	MaxScore    float64             `json:"puntajeMaximo" bson:"puntajeMaximo"`
	Percentage  int                 `json:"porcentaje" bson:"porcentaje"`
	Passed      bool                `json:"aprobado" bson:"aprobado"`
	Answers     []Answer            `json:"respuestas" bson:"respuestas"`
	SubmittedAt time.Time           `json:"fecha" bson:"fecha"`
}

type Notification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    uint               `json:"usuario" bson:"usuario"`
	Title     string             `json:"titulo" bson:"titulo"`
	Message   string             `json:"mensaje" bson:"mensaje"`
	Type      string             `json:"tipo" bson:"tipo"`
	Link      string             `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool               `json:"leida" bson:"leida"`
	CreatedAt time.Time          `json:"fechaCreacion" bson:"fechaCreacion"`
}

// ========== RESPONSE DTOs ==========

type StudentOption struct {
	ID   primitive.ObjectID `json:"_id"`
	Text string             `json:"texto"`
}

type StudentQuestion struct {
	ID      primitive.ObjectID `json:"_id"`
	Text    string             `json:"pregunta"`
	Type    QuestionType       `json:"tipo"`
	Points  float64            `json:"puntos"`
	Order   int                `json:"orden"`
	Options []StudentOption    `json:"opciones"`
}

// StudentExam - exam as shown to a student, without the answer key
type StudentExam struct {
	ID              primitive.ObjectID  `json:"_id"`
	Title           string              `json:"titulo"`
	Description     string              `json:"descripcion"`
	Type            ExamType            `json:"tipo"`
	SectionID       *primitive.ObjectID `json:"seccion"`
	PassPercentage  float64             `json:"porcentajeAprobacion"`
	AllowedAttempts int                 `json:"intentosPermitidos"`
	TimeLimit       int                 `json:"tiempoLimite"`
	Questions       []StudentQuestion   `json:"preguntas"`
}

type ExamResult struct {
	ExamID            primitive.ObjectID `json:"examen"`
	Attempt           int                `json:"intento"`
	AllowedAttempts   int                `json:"intentosPermitidos"`
	RemainingAttempts int                `json:"intentosRestantes"`
	Score             float64            `json:"puntajeTotal"`
	MaxScore          float64            `json:"puntajeMaximo"`
	Percentage        int                `json:"porcentaje"`
	PassPercentage    float64            `json:"porcentajeAprobacion"`
	Passed            bool               `json:"aprobado"`
	Reset             bool               `json:"reiniciado"`
	Diploma           *Diploma           `json:"diploma,omitempty"`
	Enrollment        *Enrollment        `json:"inscripcion,omitempty"`
}

type SectionAccess struct {
	SectionID  primitive.ObjectID `json:"seccion"`
	Unlocked   bool               `json:"habilitada"`
	HasExam    bool               `json:"tieneExamen"`
	ExamPassed bool               `json:"controlAprobado"`
	Completed  int                `json:"leccionesCompletadas"`
	Total      int                `json:"leccionesTotales"`
}

// CourseAccess - gate state for a student in a course
type CourseAccess struct {
	CourseID        primitive.ObjectID `json:"curso"`
	Completed       bool               `json:"cursoCompletado"`
	OverallProgress int                `json:"progresoGeneral"`
	Sections        []SectionAccess    `json:"secciones"`
	HasFinalExam    bool               `json:"tieneExamenFinal"`
	FinalUnlocked   bool               `json:"examenFinalHabilitado"`
	FinalPassed     bool               `json:"examenFinalAprobado"`
}

type EnrollmentState struct {
	Enrolled        bool                `json:"inscrito"`
	Status          EnrollmentStatus    `json:"estado,omitempty"`
	OverallProgress int                 `json:"progresoGeneral"`
	EnrolledAt      *time.Time          `json:"fechaInscripcion,omitempty"`
	LastAccessAt    *time.Time          `json:"fechaUltimoAcceso,omitempty"`
	EnrollmentID    *primitive.ObjectID `json:"inscripcionId,omitempty"`
}

// EnrollmentWithCourse - enrollment with its course for "my courses" listings
type EnrollmentWithCourse struct {
	Enrollment
	Course *Course `json:"curso_detalle,omitempty"`
}
