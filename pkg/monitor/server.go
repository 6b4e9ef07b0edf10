package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"digital.vasic.automation/pkg/challenge"
	"digital.vasic.automation/pkg/eventlog"
	"digital.vasic.automation/pkg/logging"
)

// Snapshotter is the slice of the manager the monitor reads.
type Snapshotter interface {
	List() []challenge.Snapshot
}

// Server pushes the live event feed to WebSocket clients and
// serves the dashboard snapshot. Routing for control operations
// belongs to the web layer on top.
type Server struct {
	addr   string
	source Snapshotter
	logger logging.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	server *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a monitor server. Events appended to the log
// after this call are broadcast to every connected WebSocket
// client.
func NewServer(
	addr string,
	source Snapshotter,
	events *eventlog.Log,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:   addr,
		source: source,
		logger: logging.NewNullLogger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	events.OnEvent(s.broadcast)
	return s
}

// Handler returns the HTTP handler serving all monitor routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.server.Close()
	}()

	s.logger.Info(
		"monitor listening", logging.F("addr", s.addr),
	)
	if err := s.server.ListenAndServe(); !errors.Is(
		err, http.ErrServerClosed,
	) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(
	w http.ResponseWriter, _ *http.Request,
) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDashboard(
	w http.ResponseWriter, _ *http.Request,
) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(
		BuildDashboard(s.source.List()),
	)
}

func (s *Server) handleWS(
	w http.ResponseWriter, r *http.Request,
) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(
			"websocket upgrade failed",
			logging.F("error", err.Error()),
		)
		return
	}

	send := make(chan []byte, 32)
	s.mu.Lock()
	s.clients[conn] = send
	s.mu.Unlock()

	// Seed the client with the current dashboard so it does not
	// start blind.
	if data, err := json.Marshal(
		BuildDashboard(s.source.List()),
	); err == nil {
		send <- data
	}

	go s.writePump(conn, send)
	s.readPump(conn)
}

func (s *Server) writePump(
	conn *websocket.Conn, send chan []byte,
) {
	for data := range send {
		if err := conn.WriteMessage(
			websocket.TextMessage, data,
		); err != nil {
			break
		}
	}
	s.dropClient(conn)
}

// readPump discards client messages; its job is noticing the
// close.
func (s *Server) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.dropClient(conn)
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	send, ok := s.clients[conn]
	if ok {
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if ok {
		close(send)
		_ = conn.Close()
	}
}

func (s *Server) broadcast(e eventlog.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, send := range s.clients {
		select {
		case send <- data:
		default:
			// Slow client, drop the event for it.
		}
	}
}
