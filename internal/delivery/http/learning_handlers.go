package http

import (
	"net/http"

	"aula-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) GetMyEnrollments(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	list, err := h.EnrollmentUsecase.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	for i := range list {
		if list[i].Course != nil {
			stripped := list[i].Course.WithoutAnswerKey()
			list[i].Course = &stripped
		}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) EnrollCourse(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	enrollment, err := h.EnrollmentUsecase.Enroll(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *Handler) UnenrollCourse(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.EnrollmentUsecase.Unenroll(c.Request.Context(), userID, c.Param("courseId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrollment cancelled successfully"})
}

func (h *Handler) GetEnrollment(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	enrollment, err := h.EnrollmentUsecase.GetEnrollment(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) GetEnrollmentStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	state, err := h.EnrollmentUsecase.GetStatus(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) GetCourseAccess(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	access, err := h.EnrollmentUsecase.GetAccess(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

func (h *Handler) ResetProgress(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	enrollment, err := h.EnrollmentUsecase.ResetProgress(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) UpdateLessonProgress(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	enrollment, err := h.EnrollmentUsecase.UpdateLessonProgress(c.Request.Context(), userID,
		c.Param("courseId"), c.Param("lessonId"), req.toUpdate())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// ========== EXAM HANDLERS ==========

// GetExam serves the section exam (?section=<id>) or the final exam (?final=true).
func (h *Handler) GetExam(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	courseID := c.Param("id")

	var (
		exam *domain.StudentExam
		err  error
	)
	if sectionID := c.Query("section"); sectionID != "" {
		exam, err = h.ExamUsecase.GetSectionExam(c.Request.Context(), userID, courseID, sectionID)
	} else if final, _ := parseBool(c.Query("final")); final {
		exam, err = h.ExamUsecase.GetFinalExam(c.Request.Context(), userID, courseID)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section or final query parameter is required", "code": domain.KindValidation})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *Handler) SubmitExam(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	result, err := h.ExamUsecase.Submit(c.Request.Context(), userID, c.Param("id"), c.Param("examId"), req.Answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetExamResults(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	results, err := h.ExamUsecase.ListResults(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ========== DIPLOMA HANDLERS ==========

func (h *Handler) GetMyDiplomas(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	diplomas, err := h.DiplomaUsecase.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, diplomas)
}

func (h *Handler) GetCourseDiploma(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	diploma, err := h.DiplomaUsecase.GetForCourse(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, diploma)
}

// ========== NOTIFICATION HANDLERS ==========

func (h *Handler) GetNotifications(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	list, err := h.NotificationUsecase.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.NotificationUsecase.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.NotificationUsecase.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.NotificationUsecase.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
