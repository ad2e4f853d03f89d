package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/realtime"
	"nutritrack/app/internal/service"
)

const testSecret = "api-test-secret"

// ---------------------------------------------------------------------------
// Stub services (func fields, only what a test sets is callable)
// ---------------------------------------------------------------------------

type stubConnectionService struct {
	ListFunc   func(ctx context.Context, s domain.Session) ([]domain.ConnectionWithProfile, error)
	CreateFunc func(ctx context.Context, s domain.Session, email string, t domain.ConnectionType, notes string) (*domain.ClientConnection, error)
	UpdateFunc func(ctx context.Context, s domain.Session, id primitive.ObjectID, st domain.ConnectionStatus) (*domain.ClientConnection, error)
}

func (m *stubConnectionService) ListConnections(ctx context.Context, s domain.Session) ([]domain.ConnectionWithProfile, error) {
	return m.ListFunc(ctx, s)
}

func (m *stubConnectionService) CreateConnection(ctx context.Context, s domain.Session, email string, t domain.ConnectionType, notes string) (*domain.ClientConnection, error) {
	return m.CreateFunc(ctx, s, email, t, notes)
}

func (m *stubConnectionService) UpdateConnectionStatus(ctx context.Context, s domain.Session, id primitive.ObjectID, st domain.ConnectionStatus) (*domain.ClientConnection, error) {
	return m.UpdateFunc(ctx, s, id, st)
}

type stubMessageService struct {
	SendFunc      func(ctx context.Context, s domain.Session, connID, recipientID primitive.ObjectID, text string) (*domain.ClientMessage, error)
	AuthorizeFunc func(ctx context.Context, s domain.Session, connID primitive.ObjectID) error
}

func (m *stubMessageService) ListMessages(context.Context, domain.Session, primitive.ObjectID) ([]domain.ClientMessage, error) {
	return []domain.ClientMessage{}, nil
}

func (m *stubMessageService) SendMessage(ctx context.Context, s domain.Session, connID, recipientID primitive.ObjectID, text string) (*domain.ClientMessage, error) {
	return m.SendFunc(ctx, s, connID, recipientID, text)
}

func (m *stubMessageService) MarkAsRead(context.Context, domain.Session, primitive.ObjectID) (*domain.ClientMessage, error) {
	return nil, service.ErrMessageNotFound
}

func (m *stubMessageService) UnreadCount(context.Context, domain.Session) (int64, error) {
	return 3, nil
}

func (m *stubMessageService) AuthorizeThread(ctx context.Context, s domain.Session, connID primitive.ObjectID) error {
	return m.AuthorizeFunc(ctx, s, connID)
}

type stubNutritionService struct {
	service.NutritionService
	ClientNutritionFunc func(ctx context.Context, s domain.Session, clientID primitive.ObjectID) ([]domain.DailyNutrition, error)
}

func (m *stubNutritionService) ClientNutrition(ctx context.Context, s domain.Session, clientID primitive.ObjectID) ([]domain.DailyNutrition, error) {
	return m.ClientNutritionFunc(ctx, s, clientID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc Services, hub *realtime.Hub) *gin.Engine {
	svc.Auth = service.NewAuthService(nil, testSecret, time.Hour, zerolog.Nop())
	if hub == nil {
		hub = realtime.NewHub(8, zerolog.Nop())
	}
	router := gin.New()
	router.Use(Recovery(zerolog.Nop()), RequestLogger(zerolog.Nop()))
	SetupRoutes(router, svc, Limiters{}, hub, zerolog.Nop())
	return router
}

func tokenFor(t *testing.T, s domain.Session) string {
	t.Helper()
	claims := service.Claims{
		UserID: s.UserID.Hex(),
		Role:   s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path string, s *domain.Session, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *s))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func newSession(role domain.Role) domain.Session {
	return domain.Session{UserID: primitive.NewObjectID(), Role: role}
}

func wsURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}
