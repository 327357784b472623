package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server serves the websocket game protocol and the management API.
type Server struct {
	cfg      *ServerConfig
	lobby    *Lobby
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool
}

// NewServer creates a server for cfg. clock drives every room timer and the
// lobby's maintenance tasks.
func NewServer(cfg *ServerConfig, clock quartz.Clock, logger *log.Logger) *Server {
	return &Server{
		cfg:   cfg,
		lobby: NewLobby(cfg, clock, logger),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
	}
}

// Lobby returns the server's lobby
func (s *Server) Lobby() *Lobby { return s.lobby }

// Handler returns the HTTP routes: the websocket endpoint, health check and
// management API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Route("/api/server", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/rooms", s.handleRooms)
		r.Post("/rooms/{name}/restart", s.handleRestart)
	})
	return r
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ServerAddress())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then closes every connection
// and stops all rooms.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.lobby.Run(gctx)
	})
	g.Go(func() error {
		s.logger.Info("Starting server", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")
		s.closeConnections()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.lobby.connections.Add(1)
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	_, ok := s.connections[c]
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.lobby.connections.Add(-1)
	c.leave()
	s.logger.Info("Client disconnected", "total", total)
}

func (s *Server) closeConnections() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.connections {
		_ = c.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	client := NewConnection(conn, s.lobby, s.logger)
	s.register(client)
	client.Start(s.unregister)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobby.Stats())
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.lobby.Rooms()
	if rooms == nil {
		rooms = []RoomInfo{}
	}
	writeJSON(w, http.StatusOK, RoomListData{Rooms: rooms})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.lobby.Restart(r.Context(), name)
	switch {
	case errors.Is(err, ErrNoSuchRoom):
		writeJSON(w, http.StatusNotFound, ErrorData{Code: "not_found", Message: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorData{Code: "restart_failed", Message: err.Error()})
		return
	}
	s.logger.Info("Room restarted via API", "room", name)
	room, _ := s.lobby.Lookup(name)
	writeJSON(w, http.StatusOK, room.Info())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
