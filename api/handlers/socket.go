package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/api"
	"github.com/admarket/chat-api/auth"
	"github.com/admarket/chat-api/chat"
	"github.com/admarket/chat-api/models"
	"github.com/admarket/chat-api/ratelimit"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. 4000 chars of content plus envelope.
	maxFrameSize = 16 * 1024
)

// Socket action names accepted from clients
const (
	actionCreateRoom  = "create_room"
	actionListRooms   = "list_rooms"
	actionSendMessage = "send_message"
	actionPing        = "ping"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// Socket owns the websocket connection lifecycle: handshake, credential
// check, session registration, the action loop and disconnect cleanup
type Socket struct {
	Service        *chat.Service
	Sessions       *chat.SessionRegistry
	Verifier       *auth.Verifier
	Limiter        *ratelimit.Limiter
	HandshakeLimit ratelimit.Limit
	HeartbeatLimit ratelimit.Limit
}

// ServeChatWebSocket upgrades the connection and runs it until close.
// The handshake is rate limited by client address before any credential
// work; a bad credential rejects the connection outright.
func (s Socket) ServeChatWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.Limiter.Allow("ip:"+api.ClientIP(r), s.HandshakeLimit); err != nil {
		zap.S().Warnw("handshake rate limited", "addr", api.ClientIP(r))
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	principal, err := s.Verifier.Verify(api.BearerToken(r))
	if err != nil {
		zap.S().Errorw("websocket auth failed", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	conn := chat.NewConnection(principal.UserID)
	s.Sessions.Register(conn)
	zap.S().Infow("websocket connected",
		"connectionId", conn.ID,
		"userId", principal.UserID,
	)

	go s.writePump(ws, conn)
	s.readPump(ws, conn, principal)
}

// readPump reads client frames until the transport dies, dispatching
// each action through the shared service. Unregister runs in a defer and
// is idempotent, so a duplicate close does no harm.
func (s Socket) readPump(ws *websocket.Conn, conn *chat.Connection, principal *models.Principal) {
	defer func() {
		s.Sessions.Unregister(conn.ID)
		ws.Close()
		zap.S().Infow("websocket disconnected",
			"connectionId", conn.ID,
			"userId", principal.UserID,
		)
	}()

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req models.SocketRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("websocket read failed", "connectionId", conn.ID, "error", err)
			}
			return
		}
		s.dispatch(conn, principal, req)
	}
}

func (s Socket) dispatch(conn *chat.Connection, principal *models.Principal, req models.SocketRequest) {
	switch req.Action {
	case actionPing:
		// Liveness only, but still bounded by its own light limit so a
		// broken client cannot flood the read loop.
		if err := s.Limiter.Allow("ping:"+principal.UserID, s.HeartbeatLimit); err != nil {
			s.pushError(conn, req.Ref, err)
			return
		}
		conn.Push(models.SocketEnvelope{Event: models.EventPong, Ref: req.Ref})

	case actionCreateRoom:
		ctx, cancel := api.WithQueryTimeout(nil)
		defer cancel()
		resp, err := s.Service.CreateRoomForContext(ctx, principal, chat.CreateRoomParams{
			ContextType:    req.Data.ContextType,
			ContextID:      req.Data.ContextID,
			CounterpartyID: req.Data.CounterpartyID,
		}, conn.ID)
		if err != nil {
			s.pushError(conn, req.Ref, err)
			return
		}
		conn.Push(models.SocketEnvelope{Event: "room", Data: resp, Ref: req.Ref})

	case actionListRooms:
		ctx, cancel := api.WithQueryTimeout(nil)
		defer cancel()
		rooms, err := s.Service.ListRooms(ctx, principal)
		if err != nil {
			s.pushError(conn, req.Ref, err)
			return
		}
		conn.Push(models.SocketEnvelope{Event: "rooms", Data: rooms, Ref: req.Ref})

	case actionSendMessage:
		ctx, cancel := api.WithQueryTimeout(nil)
		defer cancel()
		message, err := s.Service.SendMessage(ctx, principal, req.Data.RoomID, req.Data.Content, conn.ID)
		if err != nil {
			s.pushError(conn, req.Ref, err)
			return
		}
		conn.Push(models.SocketEnvelope{Event: "message", Data: message, Ref: req.Ref})

	default:
		conn.Push(models.SocketEnvelope{
			Event: models.EventError,
			Data:  models.SocketError{Code: "unknown_action", Message: "unknown action: " + req.Action},
			Ref:   req.Ref,
		})
	}
}

func (s Socket) pushError(conn *chat.Connection, ref string, err error) {
	conn.Push(models.SocketEnvelope{
		Event: models.EventError,
		Data:  models.SocketError{Code: socketErrorCode(err), Message: err.Error()},
		Ref:   ref,
	})
}

// writePump drains the connection outbox onto the wire and keeps the
// peer alive with periodic pings. A single writer per connection is a
// gorilla/websocket requirement.
func (s Socket) writePump(ws *websocket.Conn, conn *chat.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case envelope := <-conn.Outbox():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(envelope); err != nil {
				zap.S().Debugw("websocket write failed", "connectionId", conn.ID, "error", err)
				s.Sessions.Unregister(conn.ID)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Sessions.Unregister(conn.ID)
				return
			}
		case <-conn.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// socketErrorCode maps the service error values onto stable codes the
// client can branch on
func socketErrorCode(err error) string {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimited):
		return "rate_limit_exceeded"
	case errors.Is(err, chat.ErrSelfChat):
		return "self_chat"
	case errors.Is(err, chat.ErrInvalidContent):
		return "invalid_content"
	case errors.Is(err, chat.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, chat.ErrForbidden):
		return "forbidden"
	case errors.Is(err, chat.ErrNotFound):
		return "not_found"
	case errors.Is(err, auth.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "unavailable"
	}
}
