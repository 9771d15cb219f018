package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/api"
	"github.com/admarket/chat-api/auth"
	"github.com/admarket/chat-api/chat"
	"github.com/admarket/chat-api/config"
	"github.com/admarket/chat-api/ratelimit"
)

const defaultPageLimit = 50

// ChatRoom exported for testing purposes
type ChatRoom struct {
	Service *chat.Service
}

// CreateRoomRequest is the body of the room get-or-create endpoint
type CreateRoomRequest struct {
	ContextType    string `json:"contextType"`
	ContextID      string `json:"contextId"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
}

// SendMessageRequest is the body of the message send endpoint
type SendMessageRequest struct {
	Content string `json:"content"`
}

// CreateRoomHandler is the request-response path of the get-or-create
// operation. It shares the service, room registry and rate limiter with
// the websocket gateway, so both transports observe one dedupe guarantee.
func (c ChatRoom) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var body CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp, err := c.Service.CreateRoomForContext(ctx, api.PrincipalFrom(r.Context()), chat.CreateRoomParams{
		ContextType:    body.ContextType,
		ContextID:      body.ContextID,
		CounterpartyID: body.CounterpartyID,
	}, "")
	if err != nil {
		serviceErrorStatus("failed to get or create room", w, err)
		return
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	if resp.IsNew {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	w.Write(b)
}

// ListRoomsHandler returns the authenticated user's rooms
func (c ChatRoom) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rooms, err := c.Service.ListRooms(ctx, api.PrincipalFrom(r.Context()))
	if err != nil {
		serviceErrorStatus("failed to get rooms", w, err)
		return
	}

	b, err := json.Marshal(rooms)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MessagesByRoomHandler returns one page of a room's history, oldest first
func (c ChatRoom) MessagesByRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		zap.S().Debugf("limit not set, using default of %v", defaultPageLimit)
		limit = defaultPageLimit
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messages, err := c.Service.ListMessages(ctx, api.PrincipalFrom(r.Context()), roomID, int64(limit), int64(page))
	if err != nil {
		serviceErrorStatus("failed to get messages", w, err)
		return
	}

	b, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateMessageHandler appends a message to a room and fans it out
func (c ChatRoom) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	var body SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	message, err := c.Service.SendMessage(ctx, api.PrincipalFrom(r.Context()), roomID, body.Content, "")
	if err != nil {
		serviceErrorStatus("failed to send message", w, err)
		return
	}

	b, err := json.Marshal(message)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// serviceErrorStatus maps the service error values onto http statuses
func serviceErrorStatus(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimited):
		config.ErrorStatus(message, http.StatusTooManyRequests, w, err)
	case errors.Is(err, chat.ErrSelfChat),
		errors.Is(err, chat.ErrInvalidContent),
		errors.Is(err, chat.ErrInvalidRequest):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, chat.ErrForbidden):
		config.ErrorStatus(message, http.StatusForbidden, w, err)
	case errors.Is(err, chat.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, auth.ErrUnauthenticated):
		config.ErrorStatus(message, http.StatusUnauthorized, w, err)
	default:
		config.ErrorStatus(message, http.StatusServiceUnavailable, w, err)
	}
}
