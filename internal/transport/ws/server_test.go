package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callassist/orchestrator/internal/config"
	"github.com/callassist/orchestrator/internal/domain"
	"github.com/callassist/orchestrator/internal/hub"
)

type staticCalls []domain.Call

func (s staticCalls) GetActiveCalls() []domain.Call { return s }

func testConfig() *config.Config {
	return &config.Config{
		PingInterval:   time.Second,
		WriteTimeout:   time.Second,
		ReadTimeout:    5 * time.Second,
		MaxMessageSize: 65536,
	}
}

func setup(t *testing.T, calls staticCalls) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	e := echo.New()
	e.GET("/ws", NewServer(testConfig(), h, calls).HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWebSocket_ReplaysActiveCalls(t *testing.T) {
	calls := staticCalls{
		{ID: "a", Status: domain.CallStatusRinging, StartedAt: time.Unix(1700000000, 0)},
		{ID: "b", Status: domain.CallStatusAnswered, StartedAt: time.Unix(1700000001, 0)},
	}
	_, url := setup(t, calls)
	conn := dial(t, url)

	first := readJSON(t, conn)
	assert.Equal(t, "call_start", first["event_type"])
	assert.Equal(t, "a", first["call_id"])
	second := readJSON(t, conn)
	assert.Equal(t, "b", second["call_id"])
	data, ok := second["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "answered", data["status"])
}

func TestWebSocket_ForwardsEventsAndAnswersPing(t *testing.T) {
	h, url := setup(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	seg := domain.NewTranscriptSegment("c1", domain.SpeakerClient, "hello", time.Unix(1700000000, 0))
	require.NoError(t, h.Handle(domain.NewTranscriptEvent(seg)))

	msg := readJSON(t, conn)
	assert.Equal(t, "transcript", msg["event_type"])
	data, ok := msg["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", data["text"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	assert.Equal(t, "pong", readJSON(t, conn)["type"])
}

func TestWebSocket_CallFilter(t *testing.T) {
	calls := staticCalls{{ID: "a"}, {ID: "b"}}
	h, url := setup(t, calls)
	conn := dial(t, url+"?call_id=b")

	assert.Equal(t, "b", readJSON(t, conn)["call_id"])
	require.Eventually(t, func() bool { return h.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Handle(domain.NewCallEndEvent(domain.Call{ID: "a"})))
	require.NoError(t, h.Handle(domain.NewCallEndEvent(domain.Call{ID: "b"})))

	msg := readJSON(t, conn)
	assert.Equal(t, "call_end", msg["event_type"])
	assert.Equal(t, "b", msg["call_id"])
}

func TestIsPing(t *testing.T) {
	assert.True(t, isPing([]byte("ping")))
	assert.True(t, isPing([]byte(` {"type":"ping"} `)))
	assert.False(t, isPing([]byte("pong")))
	assert.False(t, isPing([]byte(`{"type":"hello"}`)))
}
