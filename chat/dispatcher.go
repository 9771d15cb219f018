package chat

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/models"
)

// Dispatcher fans events out to every live connection of a room's
// participants. Delivery is fire and forget: a participant with nothing
// connected receives nothing, and one dead connection never holds up the
// rest. Reconnecting clients re-sync from the room and message records.
type Dispatcher struct {
	sessions *SessionRegistry
}

// NewDispatcher creates a dispatcher resolving recipients through the
// given session registry
func NewDispatcher(sessions *SessionRegistry) *Dispatcher {
	return &Dispatcher{sessions: sessions}
}

// NotifyRoomCreated pushes a room-created event to all participants'
// connections except the acting one. Other connections of the acting
// user still receive it so every device shows the new room.
func (d *Dispatcher) NotifyRoomCreated(room *models.ChatRoom, excludeConnectionID string) {
	d.each(room, excludeConnectionID, func(conn *Connection) models.SocketEnvelope {
		return models.SocketEnvelope{
			Event: models.EventRoomCreated,
			Data: models.RoomCreatedEvent{
				Room:               *room,
				OtherParticipantID: room.OtherParticipant(conn.UserID),
			},
		}
	})
}

// NotifyMessageCreated pushes a message-created event to all
// participants' connections except the acting one
func (d *Dispatcher) NotifyMessageCreated(room *models.ChatRoom, message *models.Message, excludeConnectionID string) {
	envelope := models.SocketEnvelope{Event: models.EventMessageCreated, Data: message}
	d.each(room, excludeConnectionID, func(*Connection) models.SocketEnvelope {
		return envelope
	})
}

func (d *Dispatcher) each(room *models.ChatRoom, excludeConnectionID string, build func(*Connection) models.SocketEnvelope) {
	for _, userID := range lo.Uniq(room.Participants) {
		for _, conn := range d.sessions.ConnectionsOf(userID) {
			if conn.ID == excludeConnectionID {
				continue
			}
			if !conn.Push(build(conn)) {
				zap.S().Warnw("dropped event for connection",
					"connectionId", conn.ID,
					"userId", conn.UserID,
					"roomId", room.ID.Hex(),
				)
			}
		}
	}
}
