package http

import (
	"net/http"
	"strconv"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	AuthUsecase         domain.AuthUsecase
	UserUsecase         domain.UserUsecase
	CourseUsecase       domain.CourseUsecase
	EnrollmentUsecase   domain.EnrollmentUsecase
	ExamUsecase         domain.ExamUsecase
	DiplomaUsecase      domain.DiplomaUsecase
	NotificationUsecase domain.NotificationUsecase
	ReportUsecase       domain.ReportUsecase

	files *FileHandler
	log   *logger.Logger
}

func NewHandler(
	au domain.AuthUsecase,
	uu domain.UserUsecase,
	cu domain.CourseUsecase,
	eu domain.EnrollmentUsecase,
	exu domain.ExamUsecase,
	du domain.DiplomaUsecase,
	nu domain.NotificationUsecase,
	ru domain.ReportUsecase,
	files *FileHandler,
	log *logger.Logger,
) *Handler {
	return &Handler{
		AuthUsecase:         au,
		UserUsecase:         uu,
		CourseUsecase:       cu,
		EnrollmentUsecase:   eu,
		ExamUsecase:         exu,
		DiplomaUsecase:      du,
		NotificationUsecase: nu,
		ReportUsecase:       ru,
		files:               files,
		log:                 log,
	}
}

// ========== UTILITY FUNCTIONS ==========

func (h *Handler) fail(c *gin.Context, err error) {
	respondError(c, h.log, err)
}

// currentUser aborts with 401 when the token carried no user id.
func (h *Handler) currentUser(c *gin.Context) (uint, bool) {
	userID, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": domain.KindUnauthorized})
		return 0, false
	}
	return userID, true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": domain.KindValidation})
		return 0, false
	}
	return uint(id), true
}

// ========== AUTH HANDLERS ==========

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	user, err := h.AuthUsecase.Register(c.Request.Context(), domain.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"usuario": user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	token, user, err := h.AuthUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "usuario": user})
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.AuthUsecase.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile accepts JSON or multipart; a "fotoPerfil" file replaces the photo.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	photoURL, err := h.files.UploadFormFile(c, "fotoPerfil", domain.MediaImage, userID, "")
	if err != nil {
		h.fail(c, err)
		return
	}
	if photoURL != "" {
		req.Photo = &photoURL
	}

	user, err := h.AuthUsecase.UpdateProfile(c.Request.Context(), userID, req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "usuario": user})
}

// ========== USER MANAGEMENT HANDLERS ==========

func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.UserUsecase.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.UserUsecase.CreateUser(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.UserUsecase.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeactivateUser(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserUsecase.DeactivateUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}
