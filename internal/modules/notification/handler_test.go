package notification_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthinsure/internal/domain"
	"healthinsure/internal/middleware"
	inbox "healthinsure/internal/modules/notification"
	"healthinsure/internal/pkg/jwt"
	"healthinsure/internal/repository"
	"healthinsure/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type streamStub struct {
	served []int64
}

func (s *streamStub) Serve(c *gin.Context, userID int64) {
	s.served = append(s.served, userID)
	c.Status(http.StatusSwitchingProtocols)
}

type env struct {
	router *gin.Engine
	repo   *repository.NotificationRepository
	tokens *jwt.Service
	stream *streamStub
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	e := &env{
		repo:   repository.NewNotificationRepository(db),
		tokens: jwt.New("inbox-secret", time.Hour),
		stream: &streamStub{},
	}

	r := gin.New()
	api := r.Group("/api/v1", middleware.JWTAuth(e.tokens))
	inbox.NewHandler(inbox.NewService(e.repo), e.stream).RegisterRoutes(api)
	e.router = r
	return e
}

func (e *env) seed(t *testing.T, userID int64, n int) []domain.NotificationHistory {
	t.Helper()
	out := make([]domain.NotificationHistory, 0, n)
	for i := 0; i < n; i++ {
		h := domain.NotificationHistory{
			UserID:  userID,
			Type:    "claim.submitted",
			Title:   "Claim submitted",
			Message: fmt.Sprintf("message %d", i),
		}
		require.NoError(t, e.repo.Create(context.Background(), &h))
		out = append(out, h)
	}
	return out
}

func (e *env) do(t *testing.T, method, path string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	token, err := e.tokens.GenerateToken(userID, string(domain.RolePolicyHolder))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func TestList_ScopedToCallerWithCounts(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 1, 3)
	e.seed(t, 2, 2)

	w := e.do(t, http.MethodGet, "/api/v1/notifications?limit=2", 1)
	require.Equal(t, http.StatusOK, w.Code)

	var page inbox.Page
	decode(t, w, &page)
	assert.Len(t, page.Notifications, 2)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 3, page.UnreadCount)
	assert.Equal(t, 2, page.Limit)
	for _, n := range page.Notifications {
		assert.EqualValues(t, 1, n.UserID)
	}
}

func TestList_LimitIsCapped(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/notifications?limit=500", 1)
	require.Equal(t, http.StatusOK, w.Code)

	var page inbox.Page
	decode(t, w, &page)
	assert.Equal(t, 100, page.Limit)
	assert.NotNil(t, page.Notifications)
}

func TestMarkAsRead(t *testing.T) {
	e := newEnv(t)
	mine := e.seed(t, 1, 2)
	theirs := e.seed(t, 2, 1)

	w := e.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", mine[0].ID), 1)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/notifications/unread-count", 1)
	var got struct {
		UnreadCount int64 `json:"unread_count"`
	}
	decode(t, w, &got)
	assert.EqualValues(t, 1, got.UnreadCount)

	w = e.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", theirs[0].ID), 1)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w, nil).Error.Code)

	w = e.do(t, http.MethodPatch, "/api/v1/notifications/abc/read", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAllAsRead(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 1, 3)
	e.seed(t, 2, 1)

	w := e.do(t, http.MethodPatch, "/api/v1/notifications/read-all", 1)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Updated int64 `json:"updated"`
	}
	decode(t, w, &got)
	assert.EqualValues(t, 3, got.Updated)

	unread, err := e.repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	mine := e.seed(t, 1, 1)
	theirs := e.seed(t, 2, 1)

	w := e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", theirs[0].ID), 1)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", mine[0].ID), 1)
	assert.Equal(t, http.StatusOK, w.Code)

	total, err := e.repo.Count(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStream_UsesAuthenticatedUser(t *testing.T) {
	e := newEnv(t)

	e.do(t, http.MethodGet, "/api/v1/ws/notifications", 7)
	assert.Equal(t, []int64{7}, e.stream.served)
}

func TestRequiresAuth(t *testing.T) {
	e := newEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
