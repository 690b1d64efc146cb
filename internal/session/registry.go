// internal/session/registry.go
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is one live websocket connection bound to a user. The actual transport
// writes happen in the handler's write pump, which drains Out; everything else
// in the process talks to the connection only through this struct.
type Conn struct {
	UserID uuid.UUID

	// Cancel stops the read/write pumps associated with this connection.
	Cancel func()

	// Out is the buffered outbound queue for this connection.
	Out chan []byte

	mu     sync.Mutex
	closed bool
}

// NewConn returns a Conn with a buffered outbound queue.
func NewConn(userID uuid.UUID, cancel func()) *Conn {
	return &Conn{
		UserID: userID,
		Cancel: cancel,
		Out:    make(chan []byte, 16),
	}
}

// Write pushes a payload onto the connection's outbound queue without
// blocking. If the queue is full or the connection is closed the payload is
// dropped; there is no durability for a connection that cannot keep up.
func (c *Conn) Write(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Out <- payload:
		return true
	default:
		return false
	}
}

// close shuts the outbound queue exactly once. Write holds the same mutex, so
// a send can never race the close.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Out)
}

// Registry tracks which live connections belong to which user and delivers
// text payloads to them. A user may hold several simultaneous connections
// (multi-device); the registry owns the user-to-connections mapping for the
// lifetime of each connection. All methods are safe for concurrent use and
// never touch storage.
type Registry struct {
	mu    sync.Mutex
	conns map[uuid.UUID][]*Conn
	log   *logrus.Logger
}

// NewRegistry returns an empty Registry. Create one at process start and pass
// it to both the connection handler and the dispatcher.
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID][]*Conn),
		log:   log,
	}
}

// Register adds conn to the user's connection set. Registering the same conn
// twice is a no-op; Register never fails.
func (r *Registry) Register(userID uuid.UUID, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.conns[userID] {
		if existing == conn {
			return
		}
	}
	r.conns[userID] = append(r.conns[userID], conn)
	r.log.Infof("session: user %s registered connection (%d active)", userID, len(r.conns[userID]))
}

// Unregister removes conn from the user's set, closes its outbound queue and
// cancels its pumps. When the last connection goes the user is simply offline;
// no presence event is emitted.
func (r *Registry) Unregister(userID uuid.UUID, conn *Conn) {
	r.mu.Lock()
	removed := false
	list := r.conns[userID]
	for i, existing := range list {
		if existing == conn {
			r.conns[userID] = append(list[:i], list[i+1:]...)
			removed = true
			break
		}
	}
	remaining := len(r.conns[userID])
	if remaining == 0 {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	if !removed {
		return
	}
	conn.close()
	if conn.Cancel != nil {
		conn.Cancel()
	}
	r.log.Infof("session: user %s unregistered connection (%d remaining)", userID, remaining)
}

// SendTo queues payload on every connection currently registered for userID
// and returns how many connections accepted it. A user with no connections is
// a silent no-op: the payload is dropped, not held.
func (r *Registry) SendTo(userID uuid.UUID, payload []byte) int {
	r.mu.Lock()
	targets := make([]*Conn, len(r.conns[userID]))
	copy(targets, r.conns[userID])
	r.mu.Unlock()

	delivered := 0
	for _, conn := range targets {
		if conn.Write(payload) {
			delivered++
		} else {
			r.log.Warnf("session: dropped payload for user %s, outbound queue unavailable", userID)
		}
	}
	return delivered
}

// Online reports whether the user has at least one registered connection.
func (r *Registry) Online(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID]) > 0
}

// ConnCount returns the number of live connections for userID.
func (r *Registry) ConnCount(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}
