package chat

import "errors"

// Stable error values the service surfaces to both transports. The HTTP
// handlers and the socket gateway map these to status codes and error
// event codes; nothing else leaks out of the service layer.
var (
	ErrSelfChat       = errors.New("cannot open a chat with yourself")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("not a participant of this room")
	ErrInvalidContent = errors.New("message content empty or too long")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnavailable    = errors.New("storage unavailable")
)
