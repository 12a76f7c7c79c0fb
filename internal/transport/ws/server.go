// Package ws provides the WebSocket transport: connection acceptance,
// per-connection read/write pumps, and frame delivery for the router.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parlorgames/gridroom/internal/config"
)

// Handler receives connection lifecycle events and inbound frames.
// Implemented by the router.
type Handler interface {
	HandleConnect(connID string)
	HandleMessage(connID string, data []byte)
	HandleDisconnect(connID string)
}

// Server accepts WebSocket connections on /ws and pumps frames between
// clients and the Handler. It implements the router.Sender and
// server.Service interfaces.
type Server struct {
	cfg      config.ServerConfig
	handler  Handler
	logger   *zap.Logger
	upgrader websocket.Upgrader

	httpSrv *http.Server
	mu      sync.RWMutex
	clients map[string]*client
}

// NewServer creates a WebSocket server bound to cfg.Addr().
//
// Precondition: handler and logger must be non-nil; cfg must be validated.
func NewServer(cfg config.ServerConfig, handler Handler, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		clients: make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Start runs the HTTP listener. Blocks until Stop is called.
//
// Postcondition: returns nil on graceful shutdown, an error otherwise.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)

	srv := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: mux,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("websocket server listening",
		zap.String("addr", s.cfg.Addr()),
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down and closes every live connection.
func (s *Server) Stop() {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// serveWS upgrades one HTTP request into a tracked connection.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 64),
		quit:   make(chan struct{}),
		server: s,
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	s.logger.Info("connection opened",
		zap.String("conn_id", c.id),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	s.handler.HandleConnect(c.id)

	go c.writePump()
	go c.readPump()
}

// Send delivers one frame to a single connection. Frames to unknown or
// saturated connections are dropped; a client that cannot drain its queue
// is closed by its own write pump.
func (s *Server) Send(connID string, msg []byte) {
	s.mu.RLock()
	c, ok := s.clients[connID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	c.trySend(msg)
}

// Broadcast delivers one frame to every live connection.
func (s *Server) Broadcast(msg []byte) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.trySend(msg)
	}
}

// remove forgets a connection and tells the handler it is gone.
func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, present := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()

	if present {
		s.logger.Info("connection closed", zap.String("conn_id", c.id))
		s.handler.HandleDisconnect(c.id)
	}
}
