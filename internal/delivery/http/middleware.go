package http

import (
	"net/http"
	"strings"
	"time"

	"aula-backend/pkg/logger"
	"aula-backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware validates the bearer token and, when roles are given,
// restricts the route to them.
func AuthMiddleware(jwt *utils.JWTManager, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, jwt, bearerToken(c), roles)
	}
}

// LinkAuth is AuthMiddleware for links opened outside the API client, such as
// a diploma download, where ?token= stands in for the header.
func LinkAuth(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, jwt, headerOrQueryToken(c), nil)
	}
}

func authenticate(c *gin.Context, jwt *utils.JWTManager, tokenString string, roles []string) {
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "unauthorized"})
		return
	}

	claims, err := jwt.Validate(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "unauthorized"})
		return
	}

	if len(roles) > 0 && !hasRole(claims.Role, roles) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden access", "code": "forbidden"})
		return
	}

	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	c.Next()
}

// OptionalAuth sets the caller identity when a valid token is present and
// lets anonymous requests through. It backs the media stream, so <video> and
// <audio> elements may pass the token as ?token=.
func OptionalAuth(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := headerOrQueryToken(c); tokenString != "" {
			if claims, err := jwt.Validate(tokenString); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func headerOrQueryToken(c *gin.Context) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	return c.Query("token")
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}
		if uid, ok := c.Get("user_id"); ok {
			fields = append(fields, "user_id", uid)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// CORS allows the configured origins; an empty list or "*" allows any origin
// without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", "Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
