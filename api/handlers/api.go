package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/api"
	"github.com/admarket/chat-api/api/scheduler"
	"github.com/admarket/chat-api/auth"
	"github.com/admarket/chat-api/chat"
	"github.com/admarket/chat-api/config"
	"github.com/admarket/chat-api/databases"
	"github.com/admarket/chat-api/models"
	"github.com/admarket/chat-api/ratelimit"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router      *mux.Router
	Config      config.Config
	Service     *chat.Service
	Sessions    *chat.SessionRegistry
	Limiter     *ratelimit.Limiter
	Revocations *auth.RevocationStore
	Scheduler   *scheduler.Scheduler

	dbHelper databases.DatabaseHelper
	roomDB   databases.ChatRoomDatabase
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	a.Limiter = ratelimit.New()
	a.Revocations = auth.NewRevocationStore()
	a.Sessions = chat.NewSessionRegistry()

	verifier := auth.NewVerifier(a.Config.JWTSecret, a.Revocations)
	dispatcher := chat.NewDispatcher(a.Sessions)

	a.roomDB = databases.NewChatRoomDatabase(a.dbHelper)
	a.Service = chat.NewService(
		a.roomDB,
		databases.NewMessageDatabase(a.dbHelper),
		databases.NewListingDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		a.Limiter,
		dispatcher,
		chat.Limits{
			RoomCreate:  ratelimit.Limit{Max: a.Config.RoomCreateLimit, Window: a.Config.RoomCreateWindow},
			MessageSend: ratelimit.Limit{Max: a.Config.MessageSendLimit, Window: a.Config.MessageSendWindow},
		},
	)

	m := api.Middleware{Verifier: verifier}

	cr := ChatRoom{Service: a.Service}
	sock := Socket{
		Service:        a.Service,
		Sessions:       a.Sessions,
		Verifier:       verifier,
		Limiter:        a.Limiter,
		HandshakeLimit: ratelimit.Limit{Max: a.Config.HandshakeLimit, Window: a.Config.HandshakeWindow},
		HeartbeatLimit: ratelimit.Limit{Max: a.Config.HeartbeatLimit, Window: a.Config.HeartbeatWindow},
	}

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/chat/rooms", m.Authenticate(http.HandlerFunc(cr.CreateRoomHandler))).Methods("POST")
	apiCreate.Handle("/chat/rooms", m.Authenticate(http.HandlerFunc(cr.ListRoomsHandler))).Methods("GET")
	apiCreate.Handle("/chat/rooms/{room_id}/messages", m.Authenticate(http.HandlerFunc(cr.MessagesByRoomHandler))).Methods("GET")
	apiCreate.Handle("/chat/rooms/{room_id}/messages", m.Authenticate(http.HandlerFunc(cr.CreateMessageHandler))).Methods("POST")

	r.HandleFunc("/ws/chat", sock.ServeChatWebSocket)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("chat-api has connected to the database")

	// initialize api router
	a.initializeRoutes()

	// the unique roomKey index is what makes get-or-create atomic, so
	// refuse to serve without it
	ctx, cancel := api.WithQueryTimeout(nil)
	defer cancel()
	if err := a.roomDB.EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to ensure chat room indexes")
		return err
	}

	a.Scheduler = scheduler.NewScheduler(a.Limiter, a.Revocations)
	a.Scheduler.Start()

	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
