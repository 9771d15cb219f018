package models

// Socket event names pushed by the server. Each payload carries enough
// data for the client to update its view without a follow-up fetch.
const (
	EventRoomCreated    = "room-created"
	EventMessageCreated = "message-created"
	EventPong           = "pong"
	EventError          = "error"
)

// SocketEnvelope is the frame the server writes to a websocket connection
type SocketEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Ref   string      `json:"ref,omitempty"`
}

// SocketRequest is the frame a client writes on a websocket connection
type SocketRequest struct {
	Action string           `json:"action"`
	Data   SocketRequestData `json:"data"`
	Ref    string           `json:"ref,omitempty"`
}

// SocketRequestData is the union of fields the socket actions accept
type SocketRequestData struct {
	ContextType    string `json:"contextType,omitempty"`
	ContextID      string `json:"contextId,omitempty"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
	RoomID         string `json:"roomId,omitempty"`
	Content        string `json:"content,omitempty"`
}

// SocketError is the payload of an error event
type SocketError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomCreatedEvent is the payload of a room-created push
type RoomCreatedEvent struct {
	Room               ChatRoom `json:"room"`
	OtherParticipantID string   `json:"otherParticipantId"`
}

// RoomResponse is the shape both transports return for a get-or-create call
type RoomResponse struct {
	Room  ChatRoom `json:"room"`
	IsNew bool     `json:"isNew"`
}
