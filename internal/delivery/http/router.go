package http

import (
	"net/http"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"
	"aula-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	JWT         *utils.JWTManager
	CORSOrigins []string
	// MaxUploadBytes bounds multipart bodies held in memory before spilling to disk.
	MaxUploadBytes int64
	Log            *logger.Logger
}

func InitRouter(handler *Handler, files *FileHandler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Log), CORS(cfg.CORSOrigins))
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public Routes
	api.POST("/register", handler.Register)
	api.POST("/login", handler.Login)
	api.GET("/courses", handler.GetAllCourses)
	api.GET("/courses/search", handler.SearchCourses)
	api.GET("/courses/:id", handler.GetCourseDetail)
	api.GET("/media/:id", OptionalAuth(cfg.JWT), files.StreamFile)
	api.GET("/diplomas/:id/download", LinkAuth(cfg.JWT), files.DownloadDiploma)

	// Authenticated Routes
	auth := api.Group("/")
	auth.Use(AuthMiddleware(cfg.JWT))
	{
		auth.GET("/me", handler.GetProfile)
		auth.PUT("/me", handler.UpdateProfile)

		auth.GET("/enrollments", handler.GetMyEnrollments)
		auth.GET("/enrollments/:courseId", handler.GetEnrollment)
		auth.GET("/enrollments/:courseId/status", handler.GetEnrollmentStatus)
		auth.GET("/enrollments/:courseId/access", handler.GetCourseAccess)
		auth.POST("/enrollments/:courseId", handler.EnrollCourse)
		auth.DELETE("/enrollments/:courseId", handler.UnenrollCourse)
		auth.PUT("/enrollments/:courseId/reset", handler.ResetProgress)
		auth.PUT("/enrollments/:courseId/progress/:lessonId", handler.UpdateLessonProgress)

		auth.GET("/courses/:id/exams", handler.GetExam)
		auth.POST("/courses/:id/exams/:examId/submit", handler.SubmitExam)
		auth.GET("/courses/:id/exam-results", handler.GetExamResults)

		auth.GET("/diplomas", handler.GetMyDiplomas)
		auth.GET("/diplomas/course/:courseId", handler.GetCourseDiploma)

		auth.GET("/notifications", handler.GetNotifications)
		auth.PUT("/notifications/read-all", handler.MarkAllNotificationsRead)
		auth.PUT("/notifications/:id/read", handler.MarkNotificationRead)
		auth.DELETE("/notifications/:id", handler.DeleteNotification)
	}

	// Admin Routes
	admin := api.Group("/admin")
	admin.Use(AuthMiddleware(cfg.JWT, string(domain.RoleAdmin)))
	{
		admin.GET("/courses", handler.AdminListCourses)
		admin.POST("/courses", handler.CreateCourse)
		admin.GET("/courses/:id", handler.AdminGetCourse)
		admin.PUT("/courses/:id", handler.UpdateCourse)
		admin.DELETE("/courses/:id", handler.DeleteCourse)
		admin.GET("/courses/:id/report.xlsx", handler.CourseProgressReport)

		admin.POST("/courses/:id/sections", handler.AddSection)
		admin.PUT("/courses/:id/sections/:sectionId", handler.UpdateSection)
		admin.DELETE("/courses/:id/sections/:sectionId", handler.DeleteSection)

		admin.POST("/courses/:id/sections/:sectionId/lessons", handler.AddLesson)
		admin.PUT("/courses/:id/sections/:sectionId/lessons/:lessonId", handler.UpdateLesson)
		admin.DELETE("/courses/:id/sections/:sectionId/lessons/:lessonId", handler.DeleteLesson)

		admin.POST("/courses/:id/exams", handler.AddExam)
		admin.PUT("/courses/:id/exams/:examId", handler.UpdateExam)
		admin.DELETE("/courses/:id/exams/:examId", handler.DeleteExam)

		admin.GET("/users", handler.GetAllUsers)
		admin.POST("/users", handler.CreateUser)
		admin.PUT("/users/:id", handler.UpdateUser)
		admin.DELETE("/users/:id", handler.DeactivateUser)

		admin.POST("/media", files.UploadFile)
		admin.DELETE("/media/:id", files.DeleteFile)
	}

	return r
}
