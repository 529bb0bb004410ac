package http

import (
	"net/http"

	"aula-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func studentCourses(courses []domain.Course) []domain.Course {
	out := make([]domain.Course, len(courses))
	for i, course := range courses {
		out[i] = course.WithoutAnswerKey()
	}
	return out
}

// ========== CATALOG HANDLERS ==========

func (h *Handler) GetAllCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.ListCourses(c.Request.Context(), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, studentCourses(courses))
}

func (h *Handler) SearchCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.SearchCourses(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, studentCourses(courses))
}

func (h *Handler) GetCourseDetail(c *gin.Context) {
	course, err := h.CourseUsecase.GetCourse(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course.WithoutAnswerKey())
}

// ========== ADMIN COURSE HANDLERS ==========

// AdminListCourses includes inactive courses unless ?todos=0.
func (h *Handler) AdminListCourses(c *gin.Context) {
	includeInactive := true
	if raw, ok := c.GetQuery("todos"); ok {
		if v, valid := parseBool(raw); valid {
			includeInactive = v
		}
	}
	courses, err := h.CourseUsecase.ListCourses(c.Request.Context(), includeInactive)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) AdminGetCourse(c *gin.Context) {
	course, err := h.CourseUsecase.GetCourse(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// bindCourse binds JSON or multipart; an "imagen" file replaces the image URL.
func (h *Handler) bindCourse(c *gin.Context, courseID string) (domain.CourseInput, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return domain.CourseInput{}, false
	}
	var req courseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return domain.CourseInput{}, false
	}

	imageURL, err := h.files.UploadFormFile(c, "imagen", domain.MediaImage, userID, courseID)
	if err != nil {
		h.fail(c, err)
		return domain.CourseInput{}, false
	}
	if imageURL != "" {
		req.Image = &imageURL
	}
	return req.toInput(), true
}

func (h *Handler) CreateCourse(c *gin.Context) {
	input, ok := h.bindCourse(c, "")
	if !ok {
		return
	}
	course, err := h.CourseUsecase.CreateCourse(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID := c.Param("id")
	input, ok := h.bindCourse(c, courseID)
	if !ok {
		return
	}
	course, err := h.CourseUsecase.UpdateCourse(c.Request.Context(), courseID, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	if err := h.CourseUsecase.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course closed successfully"})
}

// ========== SECTION HANDLERS ==========

func (h *Handler) AddSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	section, err := h.CourseUsecase.AddSection(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *Handler) UpdateSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	section, err := h.CourseUsecase.UpdateSection(c.Request.Context(), c.Param("id"), c.Param("sectionId"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *Handler) DeleteSection(c *gin.Context) {
	if err := h.CourseUsecase.DeleteSection(c.Request.Context(), c.Param("id"), c.Param("sectionId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Section deleted successfully"})
}

// ========== LESSON HANDLERS ==========

var lessonUploads = []struct {
	field string
	kind  domain.MediaKind
}{
	{"video", domain.MediaVideo},
	{"audio", domain.MediaAudio},
	{"material", domain.MediaMaterial},
}

// bindLesson binds JSON or multipart. Uploaded video, audio and material
// files take precedence over the URL fields.
func (h *Handler) bindLesson(c *gin.Context) (domain.LessonInput, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return domain.LessonInput{}, false
	}
	var req lessonRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return domain.LessonInput{}, false
	}

	for _, up := range lessonUploads {
		url, err := h.files.UploadFormFile(c, up.field, up.kind, userID, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return domain.LessonInput{}, false
		}
		if url == "" {
			continue
		}
		switch up.kind {
		case domain.MediaVideo:
			req.VideoURL = &url
		case domain.MediaAudio:
			req.AudioURL = &url
		case domain.MediaMaterial:
			req.FileURL = &url
		}
	}
	return req.toInput(), true
}

func (h *Handler) AddLesson(c *gin.Context) {
	input, ok := h.bindLesson(c)
	if !ok {
		return
	}
	lesson, err := h.CourseUsecase.AddLesson(c.Request.Context(), c.Param("id"), c.Param("sectionId"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

func (h *Handler) UpdateLesson(c *gin.Context) {
	input, ok := h.bindLesson(c)
	if !ok {
		return
	}
	lesson, err := h.CourseUsecase.UpdateLesson(c.Request.Context(), c.Param("id"), c.Param("sectionId"), c.Param("lessonId"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) DeleteLesson(c *gin.Context) {
	err := h.CourseUsecase.DeleteLesson(c.Request.Context(), c.Param("id"), c.Param("sectionId"), c.Param("lessonId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted successfully"})
}

// ========== EXAM ADMIN HANDLERS ==========

func (h *Handler) AddExam(c *gin.Context) {
	var req examRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	exam, err := h.CourseUsecase.AddExam(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

func (h *Handler) UpdateExam(c *gin.Context) {
	var req examRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	exam, err := h.CourseUsecase.UpdateExam(c.Request.Context(), c.Param("id"), c.Param("examId"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *Handler) DeleteExam(c *gin.Context) {
	if err := h.CourseUsecase.DeleteExam(c.Request.Context(), c.Param("id"), c.Param("examId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam deleted successfully"})
}

// ========== REPORT HANDLERS ==========

func (h *Handler) CourseProgressReport(c *gin.Context) {
	data, filename, err := h.ReportUsecase.CourseProgressReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, xlsxContentType, data)
}
