package http

import (
	"errors"
	"fmt"
	"net/http"

	"aula-backend/internal/domain"
	"aula-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindConflict:     http.StatusConflict,
	domain.KindUnauthorized: http.StatusUnauthorized,
}

// respondError writes a domain error with its mapped status. Anything that is
// not a *domain.Error is logged and reported as a 500 without details.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := kindStatus[de.Kind]
		if ok {
			c.JSON(status, gin.H{"error": de.Message, "code": de.Kind})
			return
		}
	}

	log.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", c.GetString("request_id"),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
}

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make(map[string]string)
		for _, f := range ve {
			details[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		return gin.H{"error": "Validation failed", "code": domain.KindValidation, "details": details}
	}
	return gin.H{"error": "Invalid request: " + err.Error(), "code": domain.KindValidation}
}

func getUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, errors.New("user ID not found in token")
	}
	id, ok := userID.(uint)
	if !ok {
		return 0, errors.New("malformed user ID in token")
	}
	return id, nil
}

func getUserRole(c *gin.Context) domain.Role {
	role, _ := c.Get("role")
	s, _ := role.(string)
	return domain.Role(s)
}
