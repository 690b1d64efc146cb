// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/dekaustubh/matchpoint/internal/events"
	"github.com/dekaustubh/matchpoint/internal/middleware"
	"github.com/dekaustubh/matchpoint/internal/session"
)

// Custom WebSocket close codes used by the connect handler. These give the
// client a more specific reason than the standard codes.
const (
	BadSubprotocolError  = 3000 // Client connected with an unsupported subprotocol.
	BadHandshakeError    = 3001 // First frame was not a valid CONNECT message.
	HandshakeTimeoutCode = 3002 // Client never sent the CONNECT message.
)

// handshakeTimeout bounds how long a fresh connection may sit silent before
// sending its CONNECT frame.
const handshakeTimeout = 10 * time.Second

// ConnectWSHandler upgrades the connection, waits for the CONNECT handshake
// that binds it to a user, registers it with the session registry and then
// pumps events until the connection dies. Unregister runs unconditionally on
// the way out; a connection that is not cleaned up would keep receiving
// fan-outs for a user who is gone.
func (s *Server) ConnectWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"matchpoint"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.Log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "matchpoint" {
			c.Close(BadSubprotocolError, "client must speak the matchpoint subprotocol")
			return
		}
		middleware.LogWebSocketConnect(s.Log, remoteAddr, r.URL.Path)

		// The first frame must be the CONNECT handshake naming the user.
		handshakeCtx, cancelHandshake := context.WithTimeout(r.Context(), handshakeTimeout)
		userID, err := readConnectHandshake(handshakeCtx, c)
		cancelHandshake()
		if err != nil {
			s.Log.Warnf("websocket handshake failed from %s: %v", remoteAddr, err)
			c.Close(BadHandshakeError, "expected CONNECT handshake")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := session.NewConn(userID, cancel)
		s.Registry.Register(userID, conn)

		s.Log.Infof("User %v (%s) connected", userID, remoteAddr)

		go s.writePump(ctx, c, conn)
		s.readPump(ctx, c, conn)

		// Unconditional cleanup once the read pump exits, whatever the reason.
		s.Registry.Unregister(userID, conn)
		middleware.LogWebSocketDisconnect(s.Log, remoteAddr, r.URL.Path, nil)
	}
}

// readConnectHandshake reads exactly one frame and expects a CONNECT message
// carrying the user id.
func readConnectHandshake(ctx context.Context, c *websocket.Conn) (uuid.UUID, error) {
	typ, data, err := c.Read(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if typ != websocket.MessageText {
		return uuid.Nil, errNonTextHandshake
	}

	var msg events.Connect
	if err := json.Unmarshal(data, &msg); err != nil {
		return uuid.Nil, err
	}
	if msg.MessageType != events.TypeConnect || msg.UserID == uuid.Nil {
		return uuid.Nil, errBadHandshake
	}
	return msg.UserID, nil
}

var (
	errNonTextHandshake = &handshakeError{"handshake frame must be text"}
	errBadHandshake     = &handshakeError{"handshake must be a CONNECT message with a user_id"}
)

type handshakeError struct{ msg string }

func (e *handshakeError) Error() string { return e.msg }

// readPump consumes inbound frames after the handshake. The only meaningful
// client-to-server message post-handshake is the HEARTBEAT, which is echoed
// back; everything else is ignored.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *session.Conn) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				s.Log.Infof("WebSocket closed normally for user %v", conn.UserID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Pump shut down from our side, nothing to report.
			} else {
				s.Log.Warnf("Read error for user %v: %v (CloseStatus: %d)", conn.UserID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			s.Log.Warnf("Received non-text message type %d from user %v. Ignoring.", typ, conn.UserID)
			continue
		}

		var probe struct {
			MessageType events.Type `json:"message_type"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			s.Log.Warnf("Invalid json from user %v: %v", conn.UserID, err)
			continue
		}

		switch probe.MessageType {
		case events.TypeHeartbeat:
			pong, _ := json.Marshal(events.Heartbeat{MessageType: events.TypeHeartbeat, UserID: conn.UserID})
			conn.Write(pong)
		case events.TypeConnect:
			// Already registered; repeated handshakes are harmless.
		default:
			s.Log.Debugf("Ignoring inbound %s message from user %v", probe.MessageType, conn.UserID)
		}
	}
}

// writePump drains the connection's outbound queue onto the wire and keeps
// the transport alive with periodic pings. A failed write or ping means the
// connection is gone; the read pump notices via context cancellation.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *session.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-conn.Out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				s.Log.Warnf("Failed to write to websocket for user %v: %v", conn.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.Log.Warnf("Failed to ping user %v: %v. Assuming disconnect.", conn.UserID, err)
				return
			}
		}
	}
}
