package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/ratelimit"
	"nutritrack/app/internal/service"
)

// Constants for context keys
const (
	ContextSessionKey   = "session"
	ContextRequestIDKey = "requestID"
)

const RequestIDHeader = "X-Request-ID"

// AuthMiddleware validates the bearer token and stores the caller's
// domain.Session in the context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		session, err := authService.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware checks the caller has one of the allowed roles.
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromContext(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Session not found in context")
			return
		}
		for _, allowed := range allowedRoles {
			if session.Role == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Access denied: role '"+string(session.Role)+"' does not have permission")
	}
}

// ProfessionalOnly admits dietitians and trainers.
func ProfessionalOnly() gin.HandlerFunc {
	return RoleMiddleware(domain.RoleDietitian, domain.RoleTrainer)
}

func sessionFromContext(c *gin.Context) (domain.Session, bool) {
	raw, exists := c.Get(ContextSessionKey)
	if !exists {
		return domain.Session{}, false
	}
	session, ok := raw.(domain.Session)
	return session, ok
}

// mustSession returns the session or aborts with 500. Routes behind
// AuthMiddleware always have one.
func mustSession(c *gin.Context) (domain.Session, bool) {
	session, ok := sessionFromContext(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Session not found in context")
	}
	return session, ok
}

// RequestLogger assigns a request id and logs every request once it completes.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if session, ok := sessionFromContext(c); ok {
			event = event.Str("user_id", session.UserID.Hex())
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Recovery turns panics into 500 responses and logs them.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	})
}

// RateLimit rejects requests once the limiter denies their key. Keys are
// the caller's user id when authenticated, else the client IP.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		if session, ok := sessionFromContext(c); ok {
			key = scope + ":" + session.UserID.Hex()
		}
		d := limiter.Allow(c.Request.Context(), key)
		if !d.Allowed {
			if d.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			}
			abortWithError(c, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		if d.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		c.Next()
	}
}
