// internal/handlers/ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekaustubh/matchpoint/internal/events"
	"github.com/dekaustubh/matchpoint/internal/session"
)

func newWSTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	srv := &Server{
		Registry: session.NewRegistry(logger),
		Log:      logger,
	}
	ts := httptest.NewServer(srv.ConnectWSHandler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"matchpoint"},
	})
	require.NoError(t, err)
	return c
}

func sendConnect(t *testing.T, ctx context.Context, c *websocket.Conn, userID uuid.UUID) {
	t.Helper()
	payload, err := json.Marshal(events.Connect{MessageType: events.TypeConnect, UserID: userID})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, payload))
}

func TestWebSocketHandshakeRegistersAndDelivers(t *testing.T) {
	srv, ts := newWSTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := uuid.New()
	c := dialWS(t, ctx, ts)
	defer c.Close(websocket.StatusNormalClosure, "done")

	sendConnect(t, ctx, c, userID)
	require.Eventually(t, func() bool {
		return srv.Registry.Online(userID)
	}, 2*time.Second, 10*time.Millisecond)

	want, err := json.Marshal(events.NewMatchCreated(uuid.New(), "alice", 7, 3))
	require.NoError(t, err)
	require.Equal(t, 1, srv.Registry.SendTo(userID, want))

	typ, got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.JSONEq(t, string(want), string(got))
}

func TestWebSocketHeartbeatEcho(t *testing.T) {
	srv, ts := newWSTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := uuid.New()
	c := dialWS(t, ctx, ts)
	defer c.Close(websocket.StatusNormalClosure, "done")

	sendConnect(t, ctx, c, userID)
	require.Eventually(t, func() bool {
		return srv.Registry.Online(userID)
	}, 2*time.Second, 10*time.Millisecond)

	beat, err := json.Marshal(events.Heartbeat{MessageType: events.TypeHeartbeat, UserID: userID})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, beat))

	_, got, err := c.Read(ctx)
	require.NoError(t, err)

	var echo events.Heartbeat
	require.NoError(t, json.Unmarshal(got, &echo))
	assert.Equal(t, events.TypeHeartbeat, echo.MessageType)
	assert.Equal(t, userID, echo.UserID)
}

func TestWebSocketRejectsNonConnectFirstFrame(t *testing.T) {
	_, ts := newWSTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dialWS(t, ctx, ts)
	defer c.Close(websocket.StatusNormalClosure, "done")

	// A state event is not a handshake; the server closes with its bad
	// handshake code.
	payload, err := json.Marshal(events.NewMatchStarted(uuid.New(), "alice", 1, 1))
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, payload))

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(BadHandshakeError), websocket.CloseStatus(err))
}

func TestWebSocketUnregistersOnDisconnect(t *testing.T) {
	srv, ts := newWSTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := uuid.New()
	c := dialWS(t, ctx, ts)

	sendConnect(t, ctx, c, userID)
	require.Eventually(t, func() bool {
		return srv.Registry.Online(userID)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool {
		return !srv.Registry.Online(userID)
	}, 2*time.Second, 10*time.Millisecond)
}
