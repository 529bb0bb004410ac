package http

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aula-backend/internal/domain"
)

// flexBool accepts JSON booleans as well as the string forms browsers send
// from multipart forms ("si", "on", "1", ...).
type flexBool bool

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "si", "sí", "on", "yes":
		return true, true
	case "false", "0", "no", "off", "":
		return false, true
	}
	return false, false
}

func (b *flexBool) UnmarshalParam(param string) error {
	v, ok := parseBool(param)
	if !ok {
		return fmt.Errorf("invalid boolean %q", param)
	}
	*b = flexBool(v)
	return nil
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return b.UnmarshalParam(s)
}

func (b *flexBool) ptr() *bool {
	if b == nil {
		return nil
	}
	v := bool(*b)
	return &v
}

func (b *flexBool) isTrue() bool {
	return b != nil && bool(*b)
}

// ========== AUTH ==========

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"nombre" binding:"required"`
	LastName  string `json:"apellido" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	FirstName *string `json:"nombre" form:"nombre"`
	LastName  *string `json:"apellido" form:"apellido"`
	Password  *string `json:"password" form:"password" binding:"omitempty,min=6"`
	Photo     *string `json:"fotoPerfil" form:"-"`
}

func (r profileRequest) toInput() domain.ProfileInput {
	return domain.ProfileInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Photo:     r.Photo,
	}
}

type userRequest struct {
	Email     *string   `json:"email" binding:"omitempty,email"`
	Password  *string   `json:"password" binding:"omitempty,min=6"`
	FirstName *string   `json:"nombre"`
	LastName  *string   `json:"apellido"`
	Role      *string   `json:"rol"`
	Active    *flexBool `json:"activo"`
}

func (r userRequest) toInput() (domain.UserInput, error) {
	in := domain.UserInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Active:    r.Active.ptr(),
	}
	if r.Role != nil {
		role, ok := domain.ParseRole(*r.Role)
		if !ok {
			return in, domain.Validation("unknown role %q", *r.Role)
		}
		in.Role = &role
	}
	return in, nil
}

// ========== CATALOG ==========

type courseRequest struct {
	Title         *string         `json:"titulo" form:"titulo"`
	Description   *string         `json:"descripcion" form:"descripcion"`
	Image         *string         `json:"imagen" form:"imagen"`
	Teacher       *domain.Teacher `json:"profesor" form:"-"`
	TeacherName   *string         `json:"-" form:"profesorNombre"`
	Category      *string         `json:"categoria" form:"categoria"`
	Level         *string         `json:"nivel" form:"nivel" binding:"omitempty,oneof=Principiante Intermedio Avanzado"`
	Language      *string         `json:"idioma" form:"idioma"`
	TotalDuration *float64        `json:"duracionTotal" form:"duracionTotal" binding:"omitempty,gte=0"`
	Price         *float64        `json:"precio" form:"precio" binding:"omitempty,gte=0"`
	Active        *flexBool       `json:"activo" form:"activo"`
	PublishedAt   *time.Time      `json:"fechaPublicacion" form:"fechaPublicacion" time_format:"2006-01-02"`
}

func (r courseRequest) toInput() domain.CourseInput {
	in := domain.CourseInput{
		Title:         r.Title,
		Description:   r.Description,
		Image:         r.Image,
		Teacher:       r.Teacher,
		Category:      r.Category,
		Language:      r.Language,
		TotalDuration: r.TotalDuration,
		Price:         r.Price,
		Active:        r.Active.ptr(),
		PublishedAt:   r.PublishedAt,
	}
	if in.Teacher == nil && r.TeacherName != nil {
		in.Teacher = &domain.Teacher{Name: strings.TrimSpace(*r.TeacherName)}
	}
	if r.Level != nil {
		level := domain.Level(*r.Level)
		in.Level = &level
	}
	return in
}

type sectionRequest struct {
	Title         *string   `json:"titulo"`
	Description   *string   `json:"descripcion"`
	Order         *int      `json:"orden" binding:"omitempty,gte=0"`
	RequiresVideo *flexBool `json:"requiereVideo"`
	HasExam       *flexBool `json:"tieneExamen"`
}

func (r sectionRequest) toInput() domain.SectionInput {
	return domain.SectionInput{
		Title:         r.Title,
		Description:   r.Description,
		Order:         r.Order,
		RequiresVideo: r.RequiresVideo.ptr(),
		HasExam:       r.HasExam.ptr(),
	}
}

// lessonRequest binds from JSON or multipart; uploaded files are handled
// separately and override the URL fields.
type lessonRequest struct {
	Title          *string   `json:"titulo" form:"titulo"`
	Description    *string   `json:"descripcion" form:"descripcion"`
	Content        *string   `json:"contenido" form:"contenido"`
	Type           *string   `json:"tipo" form:"tipo" binding:"omitempty,oneof=video audio texto archivo"`
	VideoURL       *string   `json:"urlVideo" form:"urlVideo"`
	AudioURL       *string   `json:"urlAudio" form:"urlAudio"`
	FileURL        *string   `json:"urlArchivo" form:"urlArchivo"`
	Duration       *int      `json:"duracion" form:"duracion" binding:"omitempty,gte=0"`
	Order          *int      `json:"orden" form:"orden" binding:"omitempty,gte=0"`
	RequiresVideo  *flexBool `json:"requiereVideo" form:"requiereVideo"`
	InheritVideo   *flexBool `json:"heredarVideo" form:"heredarVideo"`
	RemoveVideo    *flexBool `json:"eliminarVideo" form:"eliminarVideo"`
	RemoveMaterial *flexBool `json:"eliminarMaterial" form:"eliminarMaterial"`
}

func (r lessonRequest) toInput() domain.LessonInput {
	in := domain.LessonInput{
		Title:          r.Title,
		Description:    r.Description,
		Content:        r.Content,
		VideoURL:       r.VideoURL,
		AudioURL:       r.AudioURL,
		FileURL:        r.FileURL,
		Duration:       r.Duration,
		Order:          r.Order,
		RequiresVideo:  r.RequiresVideo.ptr(),
		InheritVideo:   r.InheritVideo.isTrue(),
		RemoveVideo:    r.RemoveVideo.isTrue(),
		RemoveMaterial: r.RemoveMaterial.isTrue(),
	}
	if r.Type != nil {
		t := domain.LessonType(*r.Type)
		in.Type = &t
	}
	return in
}

type optionRequest struct {
	Text    string   `json:"texto"`
	Correct flexBool `json:"esCorrecta"`
}

type questionRequest struct {
	Text    string          `json:"pregunta" binding:"required"`
	Type    string          `json:"tipo" binding:"omitempty,oneof=opcion_multiple verdadero_falso texto"`
	Points  *float64        `json:"puntos"`
	Order   *int            `json:"orden"`
	Options []optionRequest `json:"opciones"`
}

type examRequest struct {
	Title           *string           `json:"titulo"`
	Description     *string           `json:"descripcion"`
	Type            *string           `json:"tipo" binding:"omitempty,oneof=seccion final"`
	SectionID       *string           `json:"seccion"`
	Questions       []questionRequest `json:"preguntas" binding:"omitempty,dive"`
	PassPercentage  *float64          `json:"porcentajeAprobacion" binding:"omitempty,gte=0,lte=100"`
	AllowedAttempts *int              `json:"intentosPermitidos" binding:"omitempty,gte=1"`
	TimeLimit       *int              `json:"tiempoLimite" binding:"omitempty,gte=0"`
	Active          *flexBool         `json:"activo"`
}

func (r examRequest) toInput() domain.ExamInput {
	in := domain.ExamInput{
		Title:           r.Title,
		Description:     r.Description,
		SectionID:       r.SectionID,
		PassPercentage:  r.PassPercentage,
		AllowedAttempts: r.AllowedAttempts,
		TimeLimit:       r.TimeLimit,
		Active:          r.Active.ptr(),
	}
	if r.Type != nil {
		t := domain.ExamType(*r.Type)
		in.Type = &t
	}
	if r.Questions != nil {
		in.Questions = make([]domain.QuestionInput, 0, len(r.Questions))
		for _, q := range r.Questions {
			qi := domain.QuestionInput{
				Text:   q.Text,
				Type:   domain.QuestionType(q.Type),
				Points: q.Points,
				Order:  q.Order,
			}
			for _, o := range q.Options {
				qi.Options = append(qi.Options, domain.OptionInput{Text: o.Text, Correct: bool(o.Correct)})
			}
			in.Questions = append(in.Questions, qi)
		}
	}
	return in
}

// ========== LEARNING ==========

type progressRequest struct {
	Completed      *flexBool `json:"completado"`
	VideoCompleted *flexBool `json:"videoCompletado"`
	Progress       *int      `json:"progreso" binding:"omitempty,gte=0,lte=100"`
}

func (r progressRequest) toUpdate() domain.LessonProgressUpdate {
	return domain.LessonProgressUpdate{
		Completed:      r.Completed.ptr(),
		VideoCompleted: r.VideoCompleted.ptr(),
		Progress:       r.Progress,
	}
}

type submitRequest struct {
	Answers []domain.Answer `json:"respuestas" binding:"required"`
}
