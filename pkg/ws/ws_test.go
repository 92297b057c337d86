package ws_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ws"
)

type echoHandler struct{}

func (echoHandler) Authenticate(_ context.Context, frame []byte) (uint, error) {
	if string(frame) == "user-7" {
		return 7, nil
	}
	return 0, errors.New("bad token")
}

func (echoHandler) Handle(_ context.Context, c *ws.Client, frame []byte) {
	c.Send([]byte("echo:" + string(frame)))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestAuthenticatedEchoAndPush(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler(echoHandler{}))
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("user-7")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("one")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("two")))

	assert.Equal(t, "echo:one", read(t, conn))
	assert.Equal(t, "echo:two", read(t, conn))
	assert.Equal(t, 1, hub.ClientCount())

	hub.Push(7, map[string]string{"type": "order"})
	assert.JSONEq(t, `{"type":"order"}`, read(t, conn))
}

func TestRejectsBadFirstFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler(echoHandler{}))
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("nope")))
	assert.JSONEq(t, `{"type":"error","message":"unauthorized"}`, read(t, conn))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}
