package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"aula-backend/internal/domain"
	"aula-backend/internal/learning"
	"aula-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type courseUsecase struct {
	courseRepo domain.CourseRepository
	index      domain.CourseIndex
	log        *logger.Logger
	now        func() time.Time
}

func NewCourseUsecase(cr domain.CourseRepository, idx domain.CourseIndex, log *logger.Logger) domain.CourseUsecase {
	return &courseUsecase{
		courseRepo: cr,
		index:      idx,
		log:        log,
		now:        time.Now,
	}
}

// ========== CATALOG ==========

func (uc *courseUsecase) ListCourses(ctx context.Context, includeInactive bool) ([]domain.Course, error) {
	return uc.courseRepo.GetAll(ctx, includeInactive)
}

// SearchCourses asks the full-text index first and falls back to the store
// query when the index is not configured or fails.
func (uc *courseUsecase) SearchCourses(ctx context.Context, query string) ([]domain.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return uc.courseRepo.GetAll(ctx, false)
	}

	ids, err := uc.index.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			uc.log.Warn("course index search failed, falling back to store", "query", query, "error", err)
		}
		return uc.courseRepo.Search(ctx, query)
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Course{}, nil
	}
	found, err := uc.courseRepo.GetByIDs(ctx, oids)
	if err != nil {
		return nil, err
	}

	// keep the relevance order of the index
	byID := make(map[primitive.ObjectID]domain.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	courses := make([]domain.Course, 0, len(found))
	for _, oid := range oids {
		if c, ok := byID[oid]; ok && c.Active {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

func (uc *courseUsecase) GetCourse(ctx context.Context, id string, includeInactive bool) (*domain.Course, error) {
	course, err := loadCourse(ctx, uc.courseRepo, id)
	if err != nil {
		return nil, err
	}
	if !course.Active && !includeInactive {
		return nil, domain.NotFound("course not found")
	}
	return course, nil
}

// ========== COURSE CRUD ==========

func (uc *courseUsecase) CreateCourse(ctx context.Context, input domain.CourseInput) (*domain.Course, error) {
	title, _ := trimmed(input.Title)
	if title == "" {
		return nil, domain.Validation("titulo is required")
	}

	now := uc.now()
	course := &domain.Course{
		Title:       title,
		Level:       domain.LevelBeginner,
		Language:    "Español",
		Active:      true,
		PublishedAt: &now,
		Sections:    []domain.Section{},
		Exams:       []domain.Exam{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := applyCourseInput(course, input, now); err != nil {
		return nil, err
	}

	if err := uc.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	uc.reindex(ctx, course)
	return course, nil
}

func (uc *courseUsecase) UpdateCourse(ctx context.Context, id string, input domain.CourseInput) (*domain.Course, error) {
	course, err := loadCourse(ctx, uc.courseRepo, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, domain.Validation("titulo cannot be empty")
	}

	now := uc.now()
	if err := applyCourseInput(course, input, now); err != nil {
		return nil, err
	}
	return course, uc.save(ctx, course, now)
}

// DeleteCourse is a soft delete: the course is closed, never removed, so
// enrollments and diplomas keep pointing at it.
func (uc *courseUsecase) DeleteCourse(ctx context.Context, id string) error {
	course, err := loadCourse(ctx, uc.courseRepo, id)
	if err != nil {
		return err
	}
	now := uc.now()
	course.Active = false
	course.ClosedAt = &now
	return uc.save(ctx, course, now)
}

func applyCourseInput(course *domain.Course, input domain.CourseInput, now time.Time) error {
	if v, ok := trimmed(input.Title); ok {
		course.Title = v
	}
	if v, ok := trimmed(input.Description); ok {
		course.Description = v
	}
	if v, ok := trimmed(input.Image); ok {
		course.Image = v
	}
	if input.Teacher != nil {
		t := *input.Teacher
		t.Name = strings.TrimSpace(t.Name)
		course.Teacher = t
	}
	if v, ok := trimmed(input.Category); ok {
		course.Category = v
	}
	if input.Level != nil {
		switch *input.Level {
		case domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced:
			course.Level = *input.Level
		default:
			return domain.Validation("nivel must be Principiante, Intermedio or Avanzado")
		}
	}
	if v, ok := trimmed(input.Language); ok && v != "" {
		course.Language = v
	}
	if input.TotalDuration != nil {
		if *input.TotalDuration < 0 {
			return domain.Validation("duracionTotal must be a positive number")
		}
		course.TotalDuration = *input.TotalDuration
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return domain.Validation("precio must be a positive number")
		}
		course.Price = *input.Price
	}
	if input.PublishedAt != nil {
		t := *input.PublishedAt
		course.PublishedAt = &t
	}
	if input.Active != nil && *input.Active != course.Active {
		course.Active = *input.Active
		if course.Active {
			course.ClosedAt = nil
		} else {
			closed := now
			course.ClosedAt = &closed
		}
	}
	return nil
}

func (uc *courseUsecase) save(ctx context.Context, course *domain.Course, now time.Time) error {
	course.UpdatedAt = now
	if err := uc.courseRepo.Update(ctx, course); err != nil {
		return err
	}
	uc.reindex(ctx, course)
	return nil
}

// Reindex pushes every course to the search index; inactive ones are removed.
func (uc *courseUsecase) Reindex(ctx context.Context) (int, error) {
	courses, err := uc.courseRepo.GetAll(ctx, true)
	if err != nil {
		return 0, err
	}
	for i := range courses {
		uc.reindex(ctx, &courses[i])
	}
	return len(courses), nil
}

func (uc *courseUsecase) reindex(ctx context.Context, course *domain.Course) {
	var err error
	if course.Active {
		err = uc.index.Index(ctx, course)
	} else {
		err = uc.index.Remove(ctx, course.ID.Hex())
	}
	if err != nil {
		uc.log.Warn("failed to update course index", "course_id", course.ID.Hex(), "error", err)
	}
}

// ========== SECTIONS ==========

func (uc *courseUsecase) AddSection(ctx context.Context, courseID string, input domain.SectionInput) (*domain.Section, error) {
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, err
	}
	title, _ := trimmed(input.Title)
	if title == "" {
		return nil, domain.Validation("the section needs a titulo")
	}

	section := domain.Section{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Order:         len(course.Sections) + 1,
		RequiresVideo: true,
		Lessons:       []domain.Lesson{},
	}
	if v, ok := trimmed(input.Description); ok {
		section.Description = v
	}
	if input.Order != nil {
		section.Order = *input.Order
	}
	if input.RequiresVideo != nil {
		section.RequiresVideo = *input.RequiresVideo
	}
	if input.HasExam != nil {
		section.HasExam = *input.HasExam
	}

	course.Sections = append(course.Sections, section)
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &section, nil
}

func (uc *courseUsecase) UpdateSection(ctx context.Context, courseID, sectionID string, input domain.SectionInput) (*domain.Section, error) {
	course, section, err := uc.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}

	if v, ok := trimmed(input.Title); ok {
		if v == "" {
			return nil, domain.Validation("the section must keep a titulo")
		}
		section.Title = v
	}
	if v, ok := trimmed(input.Description); ok {
		section.Description = v
	}
	if input.Order != nil {
		section.Order = *input.Order
	}
	if input.RequiresVideo != nil {
		section.RequiresVideo = *input.RequiresVideo
	}
	if input.HasExam != nil {
		section.HasExam = *input.HasExam
	}

	out := *section
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSection also drops the section exams attached to it.
func (uc *courseUsecase) DeleteSection(ctx context.Context, courseID, sectionID string) error {
	course, section, err := uc.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return err
	}
	id := section.ID

	sections := course.Sections[:0]
	for _, s := range course.Sections {
		if s.ID != id {
			sections = append(sections, s)
		}
	}
	course.Sections = sections

	exams := course.Exams[:0]
	for _, e := range course.Exams {
		if e.SectionID == nil || *e.SectionID != id {
			exams = append(exams, e)
		}
	}
	course.Exams = exams

	return uc.save(ctx, course, uc.now())
}

func (uc *courseUsecase) loadSection(ctx context.Context, courseID, sectionID string) (*domain.Course, *domain.Section, error) {
	sid, err := domain.ParseID(sectionID, "section")
	if err != nil {
		return nil, nil, err
	}
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, nil, err
	}
	section := course.SectionByID(sid)
	if section == nil {
		return nil, nil, domain.NotFound("section not found")
	}
	return course, section, nil
}

// ========== LESSONS ==========

func (uc *courseUsecase) AddLesson(ctx context.Context, courseID, sectionID string, input domain.LessonInput) (*domain.Lesson, error) {
	course, section, err := uc.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	title, _ := trimmed(input.Title)
	if title == "" {
		return nil, domain.Validation("the lesson needs a titulo")
	}

	lesson := domain.Lesson{
		ID:    primitive.NewObjectID(),
		Title: title,
		Order: len(section.Lessons) + 1,
	}
	if input.Order != nil {
		lesson.Order = *input.Order
	}
	if err := applyLessonInput(*section, &lesson, input); err != nil {
		return nil, err
	}

	section.Lessons = append(section.Lessons, lesson)
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (uc *courseUsecase) UpdateLesson(ctx context.Context, courseID, sectionID, lessonID string, input domain.LessonInput) (*domain.Lesson, error) {
	lid, err := domain.ParseID(lessonID, "lesson")
	if err != nil {
		return nil, err
	}
	course, section, err := uc.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}
	lesson := section.LessonByID(lid)
	if lesson == nil {
		return nil, domain.NotFound("lesson not found")
	}

	// work on a copy so a rejected update leaves the course untouched
	updated := *lesson
	if v, ok := trimmed(input.Title); ok {
		if v == "" {
			return nil, domain.Validation("the lesson must keep a titulo")
		}
		updated.Title = v
	}
	if input.Order != nil {
		updated.Order = *input.Order
	}
	if err := applyLessonInput(*section, &updated, input); err != nil {
		return nil, err
	}

	*lesson = updated
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (uc *courseUsecase) DeleteLesson(ctx context.Context, courseID, sectionID, lessonID string) error {
	lid, err := domain.ParseID(lessonID, "lesson")
	if err != nil {
		return err
	}
	course, section, err := uc.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return err
	}
	if section.LessonByID(lid) == nil {
		return domain.NotFound("lesson not found")
	}

	lessons := section.Lessons[:0]
	for _, l := range section.Lessons {
		if l.ID != lid {
			lessons = append(lessons, l)
		}
	}
	section.Lessons = lessons
	return uc.save(ctx, course, uc.now())
}

// applyLessonInput merges input into lesson and enforces the media rules:
// a lesson that requires video must carry one, and without an explicit tipo
// the type follows the media it holds (video, then audio, then texto).
func applyLessonInput(section domain.Section, lesson *domain.Lesson, input domain.LessonInput) error {
	if lesson.Order < 0 {
		return domain.Validation("orden must be zero or greater")
	}
	if v, ok := trimmed(input.Description); ok {
		lesson.Description = v
	}
	if input.Content != nil {
		lesson.Content = *input.Content
	}
	if input.Duration != nil {
		if *input.Duration < 0 {
			return domain.Validation("duracion must be zero or greater")
		}
		lesson.Duration = *input.Duration
	}

	switch {
	case input.InheritVideo:
		lesson.RequiresVideo = nil
	case input.RequiresVideo != nil:
		v := *input.RequiresVideo
		lesson.RequiresVideo = &v
	}

	if input.VideoURL != nil {
		lesson.VideoURL = normalizeMediaURL(*input.VideoURL)
	}
	if input.RemoveVideo {
		lesson.VideoURL = ""
	}
	if input.AudioURL != nil {
		lesson.AudioURL = normalizeMediaURL(*input.AudioURL)
	}
	if input.FileURL != nil {
		lesson.FileURL = strings.TrimSpace(*input.FileURL)
	} else if input.RemoveMaterial {
		lesson.FileURL = ""
	}

	if learning.EffectiveRequiresVideo(section, *lesson) && lesson.VideoURL == "" {
		return domain.Validation("this lesson requires a video; upload an MP4, WebM, OGG or MOV file")
	}

	if input.Type != nil {
		if !input.Type.Valid() {
			return domain.Validation("tipo must be video, audio, texto or archivo")
		}
		lesson.Type = *input.Type
	} else {
		lesson.Type = derivedLessonType(*lesson)
	}
	return nil
}

func derivedLessonType(l domain.Lesson) domain.LessonType {
	switch {
	case l.VideoURL != "":
		return domain.LessonVideo
	case l.AudioURL != "":
		return domain.LessonAudio
	default:
		return domain.LessonText
	}
}

// ========== EXAMS ==========

func (uc *courseUsecase) AddExam(ctx context.Context, courseID string, input domain.ExamInput) (*domain.Exam, error) {
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, err
	}

	exam := domain.Exam{
		ID:              primitive.NewObjectID(),
		Type:            domain.ExamSection,
		PassPercentage:  70,
		AllowedAttempts: 2,
		Active:          true,
		CreatedAt:       uc.now(),
	}
	if input.Title == nil {
		return nil, domain.Validation("the exam needs a titulo")
	}
	if input.Questions == nil {
		return nil, domain.Validation("the exam needs at least one question")
	}
	if err := applyExamInput(course, &exam, input); err != nil {
		return nil, err
	}

	course.Exams = append(course.Exams, exam)
	syncSectionExamFlags(course)
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (uc *courseUsecase) UpdateExam(ctx context.Context, courseID, examID string, input domain.ExamInput) (*domain.Exam, error) {
	eid, err := domain.ParseID(examID, "exam")
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return nil, err
	}
	exam := course.ExamByID(eid)
	if exam == nil {
		return nil, domain.NotFound("exam not found")
	}

	updated := *exam
	if err := applyExamInput(course, &updated, input); err != nil {
		return nil, err
	}
	*exam = updated

	syncSectionExamFlags(course)
	if err := uc.save(ctx, course, uc.now()); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (uc *courseUsecase) DeleteExam(ctx context.Context, courseID, examID string) error {
	eid, err := domain.ParseID(examID, "exam")
	if err != nil {
		return err
	}
	course, err := loadCourse(ctx, uc.courseRepo, courseID)
	if err != nil {
		return err
	}
	if course.ExamByID(eid) == nil {
		return domain.NotFound("exam not found")
	}

	exams := course.Exams[:0]
	for _, e := range course.Exams {
		if e.ID != eid {
			exams = append(exams, e)
		}
	}
	course.Exams = exams
	syncSectionExamFlags(course)
	return uc.save(ctx, course, uc.now())
}

func applyExamInput(course *domain.Course, exam *domain.Exam, input domain.ExamInput) error {
	if v, ok := trimmed(input.Title); ok {
		if v == "" {
			return domain.Validation("the exam needs a titulo")
		}
		exam.Title = v
	}
	if v, ok := trimmed(input.Description); ok {
		exam.Description = v
	}
	if input.Type != nil {
		if *input.Type == domain.ExamFinal {
			exam.Type = domain.ExamFinal
		} else {
			exam.Type = domain.ExamSection
		}
	}
	if input.SectionID != nil {
		if *input.SectionID == "" {
			exam.SectionID = nil
		} else {
			sid, err := domain.ParseID(*input.SectionID, "section")
			if err != nil {
				return err
			}
			exam.SectionID = &sid
		}
	}
	if exam.Type == domain.ExamFinal {
		exam.SectionID = nil
	} else {
		if exam.SectionID == nil {
			return domain.Validation("a section exam must name its seccion")
		}
		if course.SectionByID(*exam.SectionID) == nil {
			return domain.NotFound("section not found")
		}
	}

	if input.PassPercentage != nil {
		if *input.PassPercentage < 0 || *input.PassPercentage > 100 {
			return domain.Validation("porcentajeAprobacion must be between 0 and 100")
		}
		exam.PassPercentage = *input.PassPercentage
	}
	if input.AllowedAttempts != nil {
		if *input.AllowedAttempts < 1 {
			return domain.Validation("intentosPermitidos must be at least 1")
		}
		exam.AllowedAttempts = *input.AllowedAttempts
	}
	if input.TimeLimit != nil {
		if *input.TimeLimit < 0 {
			return domain.Validation("tiempoLimite must be zero or greater")
		}
		exam.TimeLimit = *input.TimeLimit
	}
	if input.Active != nil {
		exam.Active = *input.Active
	}

	if input.Questions != nil {
		questions, err := buildQuestions(input.Questions)
		if err != nil {
			return err
		}
		exam.Questions = questions
	}
	return nil
}

func buildQuestions(inputs []domain.QuestionInput) ([]domain.Question, error) {
	if len(inputs) == 0 {
		return nil, domain.Validation("the exam needs at least one question")
	}
	questions := make([]domain.Question, 0, len(inputs))
	for i, in := range inputs {
		n := i + 1
		q := domain.Question{
			ID:     primitive.NewObjectID(),
			Text:   strings.TrimSpace(in.Text),
			Type:   in.Type,
			Points: 1,
			Order:  n,
		}
		if q.Text == "" {
			return nil, domain.Validation("question %d needs a text", n)
		}
		if q.Type == "" {
			q.Type = domain.QuestionMultipleChoice
		}
		if !q.Type.Valid() {
			return nil, domain.Validation("question %d has an invalid tipo", n)
		}
		if in.Points != nil {
			if *in.Points <= 0 {
				return nil, domain.Validation("question %d must be worth more than 0 points", n)
			}
			q.Points = *in.Points
		}
		if in.Order != nil {
			q.Order = *in.Order
		}

		switch q.Type {
		case domain.QuestionTrueFalse:
			options, err := trueFalseOptions(in.Options, n)
			if err != nil {
				return nil, err
			}
			q.Options = options
		case domain.QuestionMultipleChoice:
			if len(in.Options) == 0 {
				return nil, domain.Validation("question %d needs at least one option", n)
			}
			hasCorrect := false
			for j, o := range in.Options {
				text := strings.TrimSpace(o.Text)
				if text == "" {
					return nil, domain.Validation("option %d of question %d needs a text", j+1, n)
				}
				hasCorrect = hasCorrect || o.Correct
				q.Options = append(q.Options, domain.Option{ID: primitive.NewObjectID(), Text: text, Correct: o.Correct})
			}
			if !hasCorrect {
				return nil, domain.Validation("question %d needs a correct option", n)
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// trueFalseOptions stores the fixed Verdadero/Falso pair whatever texts were
// sent. The correct one comes from the option marked correct, read by its text
// or, for an unlabeled pair, by its position.
func trueFalseOptions(inputs []domain.OptionInput, n int) ([]domain.Option, error) {
	var answer *bool
	for j, o := range inputs {
		if !o.Correct {
			continue
		}
		v, ok := learning.TrueFalseValue(o.Text)
		if !ok {
			if len(inputs) != 2 {
				return nil, domain.Validation("question %d: true/false options must be Verdadero and Falso", n)
			}
			v = j == 0
		}
		if answer != nil && *answer != v {
			return nil, domain.Validation("question %d: exactly one of Verdadero or Falso must be correct", n)
		}
		answer = &v
	}
	if answer == nil {
		return nil, domain.Validation("question %d needs a correct option", n)
	}
	return []domain.Option{
		{ID: primitive.NewObjectID(), Text: "Verdadero", Correct: *answer},
		{ID: primitive.NewObjectID(), Text: "Falso", Correct: !*answer},
	}, nil
}

// syncSectionExamFlags keeps tieneExamen in step with the active section exams.
func syncSectionExamFlags(course *domain.Course) {
	for i := range course.Sections {
		course.Sections[i].HasExam = course.SectionExam(course.Sections[i].ID) != nil
	}
}
