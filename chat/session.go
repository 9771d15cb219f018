package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admarket/chat-api/models"
)

// sendBuffer bounds the per-connection outbox. A reader that cannot keep
// up loses pushes rather than stalling fan-out; the durable record is
// still in mongo for the next re-sync.
const sendBuffer = 32

// Connection is one live client connection. The write side is a buffered
// outbox channel drained by the transport's write pump, so the dispatcher
// never blocks on a slow socket.
type Connection struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	outbox chan models.SocketEnvelope
	done   chan struct{}
	once   sync.Once
}

// NewConnection creates a connection owned by the given user
func NewConnection(userID string) *Connection {
	return &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		outbox:      make(chan models.SocketEnvelope, sendBuffer),
		done:        make(chan struct{}),
	}
}

// Outbox is drained by the transport write pump
func (c *Connection) Outbox() <-chan models.SocketEnvelope {
	return c.outbox
}

// Done is closed when the connection is unregistered
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Push enqueues an envelope without blocking. Returns false when the
// connection is closed or its outbox is full.
func (c *Connection) Push(envelope models.SocketEnvelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outbox <- envelope:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.once.Do(func() { close(c.done) })
}

// SessionRegistry maps user ids to their open connections. A user may
// hold many at once (several devices or tabs); every one of them receives
// fan-out.
type SessionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Connection
	byConn map[string]*Connection
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byUser: make(map[string]map[string]*Connection),
		byConn: make(map[string]*Connection),
	}
}

// Register adds a connection under its user id
func (r *SessionRegistry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[conn.UserID] == nil {
		r.byUser[conn.UserID] = make(map[string]*Connection)
	}
	r.byUser[conn.UserID][conn.ID] = conn
	r.byConn[conn.ID] = conn
}

// Unregister removes a connection and signals its done channel. Safe to
// call any number of times for the same id: graceful close and the
// transport's error path may both land here.
func (r *SessionRegistry) Unregister(connectionID string) {
	r.mu.Lock()
	conn, ok := r.byConn[connectionID]
	if ok {
		delete(r.byConn, connectionID)
		if userConns := r.byUser[conn.UserID]; userConns != nil {
			delete(userConns, connectionID)
			if len(userConns) == 0 {
				delete(r.byUser, conn.UserID)
			}
		}
	}
	r.mu.Unlock()
	if ok {
		conn.close()
	}
}

// ConnectionsOf returns the live connections of a user, possibly none
func (r *SessionRegistry) ConnectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.byUser[userID]))
	for _, conn := range r.byUser[userID] {
		conns = append(conns, conn)
	}
	return conns
}

// Count returns the number of open connections across all users
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
