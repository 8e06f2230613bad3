package notification

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthinsure/internal/domain"
)

func TestHub_PushReachesConnectedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	hub := NewHub(log, []string{"*"})
	defer hub.Close()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { hub.Serve(c, 7) })
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(7) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.OnlineCount())

	assert.False(t, hub.Push(8, "nobody home"))
	assert.True(t, hub.Push(7, &domain.NotificationHistory{ID: 1, UserID: 7, Title: "Claim paid"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got domain.NotificationHistory
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Claim paid", got.Title)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.IsOnline(7) }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	check := originChecker([]string{"http://app.example"})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://app.example")
	assert.True(t, check(req))
}

type discardStore struct{}

func (discardStore) Create(context.Context, *domain.NotificationHistory) error { return nil }

func TestDeliver_NotHeldUpByStalledClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	hub := NewHub(log, nil)
	defer hub.Close()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { hub.Serve(c, 7) })
	srv := httptest.NewServer(router)
	defer srv.Close()

	// The client connects and never reads.
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(7) }, 2*time.Second, 10*time.Millisecond)

	d := NewDispatcher(NewQueue(), discardStore{}, hub, log)
	body := strings.Repeat("x", 8<<10)

	start := time.Now()
	for i := 0; i < 2000; i++ {
		require.NoError(t, d.Deliver(context.Background(), Event{UserID: 7, Kind: KindClaimPaid, Title: "Claim paid", Message: body}))
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, hub.IsOnline(7))
}

func TestHub_ReconnectReplacesConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	hub := NewHub(log, nil)
	defer hub.Close()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { hub.Serve(c, 3) })
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return hub.IsOnline(3) }, 2*time.Second, 10*time.Millisecond)

	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer second.Close()

	// The first socket is closed by the hub once the second registers.
	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = first.ReadMessage()
	require.Error(t, err)

	assert.True(t, hub.Push(3, map[string]string{"title": "Policy renewed"}))
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]string
	require.NoError(t, second.ReadJSON(&got))
	assert.Equal(t, "Policy renewed", got["title"])
	assert.Equal(t, 1, hub.OnlineCount())
}
