package testevents

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opstrack/opstrack/pkg/logger"
)

const (
	serverWriteWait       = 5 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Server is a local stand-in for the push endpoint. Every connection
// receives every broadcast frame; inbound subscribe messages are echoed
// back the way the real service does.
type Server struct {
	upgrader websocket.Upgrader
	srv      *http.Server
	log      logger.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewServer creates a simulator server listening on addr.
func NewServer(addr string) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
		log:   logger.Named("sim-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/streaming", s.handleStream)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the listener until Close. The error from a clean shutdown
// is swallowed.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info(ctx, "simulated push stream listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Broadcast writes one text frame to every connection.
func (s *Server) Broadcast(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(serverWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			_ = conn.Close()
			delete(s.conns, conn)
		}
	}
}

// ConnectionCount reports the live connection count.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close shuts the listener down and drops every connection.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "upgrade failed", logger.Error(err))
		return
	}

	// Connection state announcement, as the real endpoint sends.
	_ = conn.SetWriteDeadline(time.Now().Add(serverWriteWait))
	_ = conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"service":"push","type":"serviceStateChanged","online":"true"}`))

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	// Reader loop: echo subscription requests, drop everything else.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			echo := `{"subscription":` + string(msg) + `}`
			s.mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(serverWriteWait))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(echo))
			s.mu.Unlock()
		}
	}()
}
