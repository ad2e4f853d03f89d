package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/ratelimit"
	"nutritrack/app/internal/service"
)

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(Services{}, nil)
	user := newSession(domain.RoleUser)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/messages/unread-count", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header is missing", errorBody(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/unread-count", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/messages/unread-count", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", errorBody(t, rec))

	router = newTestRouter(Services{Messages: &stubMessageService{}}, nil)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/messages/unread-count", &user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":3}`, rec.Body.String())
}

func TestProfessionalOnly(t *testing.T) {
	called := false
	conns := &stubConnectionService{
		CreateFunc: func(context.Context, domain.Session, string, domain.ConnectionType, string) (*domain.ClientConnection, error) {
			called = true
			return nil, errors.New("unreachable")
		},
	}
	router := newTestRouter(Services{Connections: conns}, nil)
	client := newSession(domain.RoleUser)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/connections", &client, gin.H{"clientEmail": "a@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/clients/"+client.UserID.Hex()+"/notes", &client, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type denyAll struct{ calls int }

func (d *denyAll) Allow(context.Context, string) ratelimit.Decision {
	d.calls++
	if d.calls <= 1 {
		return ratelimit.Decision{Allowed: true}
	}
	return ratelimit.Decision{RetryAfter: 1500 * time.Millisecond}
}

func TestRateLimit(t *testing.T) {
	limiter := &denyAll{}
	router := gin.New()
	router.GET("/x", RateLimit(limiter, "test"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrEmptyMessage, http.StatusBadRequest},
		{errors.Join(service.ErrValidation, errors.New("bad date")), http.StatusBadRequest},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{service.ErrNoAccess, http.StatusForbidden},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrConnectionNotFound, http.StatusNotFound},
		{service.ErrConnectionExists, http.StatusConflict},
		{service.ErrUserAlreadyExists, http.StatusConflict},
		{errors.New("mongo exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
