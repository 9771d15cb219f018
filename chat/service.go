package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/databases"
	"github.com/admarket/chat-api/models"
	"github.com/admarket/chat-api/ratelimit"
)

// Limits carries the per-class rate limits the service enforces. Both
// transports call through here, so the window is shared whichever way a
// request arrives.
type Limits struct {
	RoomCreate  ratelimit.Limit
	MessageSend ratelimit.Limit
}

// CreateRoomParams is the input of the get-or-create operation. When
// CounterpartyID is empty the counterparty is resolved to the owner of
// the context entity ("chat with the poster of this listing").
type CreateRoomParams struct {
	ContextType    string `validate:"required"`
	ContextID      string `validate:"required,len=24,hexadecimal"`
	CounterpartyID string `validate:"omitempty,min=1"`
}

// Service composes the room registry, message store, rate limiter and
// dispatcher into the chat operations both transports expose
type Service struct {
	Rooms      databases.ChatRoomDatabase
	Messages   databases.MessageDatabase
	Listings   databases.ListingDatabase
	Users      databases.UserDatabase
	Limiter    *ratelimit.Limiter
	Dispatcher *Dispatcher
	Limits     Limits

	validate *validator.Validate
}

// NewService wires the chat service
func NewService(rooms databases.ChatRoomDatabase, messages databases.MessageDatabase, listings databases.ListingDatabase, users databases.UserDatabase, limiter *ratelimit.Limiter, dispatcher *Dispatcher, limits Limits) *Service {
	return &Service{
		Rooms:      rooms,
		Messages:   messages,
		Listings:   listings,
		Users:      users,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Limits:     limits,
		validate:   validator.New(),
	}
}

// CreateRoomForContext resolves or creates the single room for the
// (context, unordered participant pair) key. actorConnectionID is the
// connection that triggered the call, excluded from its own fan-out; it
// is empty on the plain HTTP path.
func (s *Service) CreateRoomForContext(ctx context.Context, principal *models.Principal, params CreateRoomParams, actorConnectionID string) (*models.RoomResponse, error) {
	if err := s.Limiter.Allow(principal.UserID, s.Limits.RoomCreate); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	counterparty := params.CounterpartyID
	if counterparty == "" {
		contextID, err := primitive.ObjectIDFromHex(params.ContextID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		listing, err := s.Listings.FindByID(ctx, contextID)
		if err != nil {
			return nil, mapStorageErr(err)
		}
		counterparty = listing.OwnerID
	}

	if counterparty == principal.UserID {
		return nil, ErrSelfChat
	}

	exists, err := s.Users.Exists(ctx, counterparty)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, counterparty)
	}

	room, isNew, err := s.Rooms.GetOrCreate(ctx, params.ContextType, params.ContextID, principal.UserID, counterparty)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if isNew {
		s.Dispatcher.NotifyRoomCreated(room, actorConnectionID)
	}
	return &models.RoomResponse{Room: *room, IsNew: isNew}, nil
}

// ListRooms returns every room the principal participates in
func (s *Service) ListRooms(ctx context.Context, principal *models.Principal) ([]models.ChatRoom, error) {
	rooms, err := s.Rooms.FindForUser(ctx, principal.UserID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if rooms == nil {
		rooms = []models.ChatRoom{}
	}
	return rooms, nil
}

// SendMessage appends a message to a room the principal participates in
// and fans it out to the other participants' connections. The room is
// re-validated first; a room that vanished between read and append comes
// back as ErrNotFound, never a crash.
func (s *Service) SendMessage(ctx context.Context, principal *models.Principal, roomID, content, actorConnectionID string) (*models.Message, error) {
	if err := s.Limiter.Allow(principal.UserID, s.Limits.MessageSend); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(content); n == 0 || n > models.MaxMessageLength {
		return nil, ErrInvalidContent
	}

	room, err := s.authorizeRoom(ctx, principal, roomID)
	if err != nil {
		return nil, err
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	message, err := s.Messages.Insert(ctx, models.Message{
		RoomID:    room.ID,
		SenderID:  principal.UserID,
		Content:   content,
		CreatedAt: now,
	})
	if err != nil {
		return nil, mapStorageErr(err)
	}

	if err := s.Rooms.TouchLastMessage(ctx, room.ID, now); err != nil {
		// Derived metadata only; the message itself is already stored.
		zap.S().Warnw("failed to update room last message time",
			"roomId", room.ID.Hex(),
			"error", err,
		)
	}

	s.Dispatcher.NotifyMessageCreated(room, message, actorConnectionID)
	return message, nil
}

// ListMessages returns one page of a room's history, oldest first
func (s *Service) ListMessages(ctx context.Context, principal *models.Principal, roomID string, limit, page int64) ([]models.Message, error) {
	room, err := s.authorizeRoom(ctx, principal, roomID)
	if err != nil {
		return nil, err
	}
	messages, err := s.Messages.FindByRoom(ctx, room.ID, limit, page)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (s *Service) authorizeRoom(ctx context.Context, principal *models.Principal, roomID string) (*models.ChatRoom, error) {
	id, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	room, err := s.Rooms.FindByID(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if !room.HasParticipant(principal.UserID) {
		return nil, ErrForbidden
	}
	return room, nil
}

func mapStorageErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
