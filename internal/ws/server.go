package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to live viewer WebSockets.
type Server struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds the upgrade handler for the hub.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for /ws. The viewer receives a hello envelope
// first, then every telemetry broadcast until it disconnects.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, s.logger, func(c *Client) {
		s.hub.Unregister(c)
		s.logger.Info("viewer disconnected", zap.String("remote", r.RemoteAddr))
	})

	// Hello is enqueued before the client joins the broadcast set, so it is
	// always the first frame the viewer sees.
	client.Send(HelloMessage(time.Now()))
	s.hub.Register(client)

	s.logger.Info("viewer connected", zap.String("remote", r.RemoteAddr))
	go client.Start()
}
