package config

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string `envconfig:"DB_URI"`
	DatabaseName string `envconfig:"DB_NAME"`
	BaseURL      string `envconfig:"BASE_URL"`
	Port         string `envconfig:"PORT" default:"8080"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	// Per-class rate limits. Each limited operation carries its own
	// window so a client throttled on room creation can still send
	// messages on rooms it already has.
	RoomCreateLimit   int           `envconfig:"ROOM_CREATE_LIMIT" default:"10"`
	RoomCreateWindow  time.Duration `envconfig:"ROOM_CREATE_WINDOW" default:"1m"`
	MessageSendLimit  int           `envconfig:"MESSAGE_SEND_LIMIT" default:"30"`
	MessageSendWindow time.Duration `envconfig:"MESSAGE_SEND_WINDOW" default:"10s"`
	HandshakeLimit    int           `envconfig:"HANDSHAKE_LIMIT" default:"20"`
	HandshakeWindow   time.Duration `envconfig:"HANDSHAKE_WINDOW" default:"1m"`
	HeartbeatLimit    int           `envconfig:"HEARTBEAT_LIMIT" default:"60"`
	HeartbeatWindow   time.Duration `envconfig:"HEARTBEAT_WINDOW" default:"1m"`
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		zap.S().With(err).Error("failed to process env config")
	}
	return c
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Message: message,
		Error:   err.Error(),
	}})
	w.Write(b)
}
