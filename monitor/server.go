// Package monitor exposes the agent's live state over HTTP: a one-shot
// JSON snapshot and a websocket stream for dashboards.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mm-agent-go/engine"
	"mm-agent-go/infrastructure/logger"
)

const (
	writeTimeout = 5 * time.Second
	readLimit    = 512 // clients only send control frames
)

// StateSource is anything that can snapshot itself. Satisfied by
// *engine.Engine.
type StateSource interface {
	State() engine.State
}

// stateMessage is the wire envelope pushed to websocket clients.
type stateMessage struct {
	Timestamp time.Time    `json:"timestamp"`
	State     engine.State `json:"state"`
}

// client wraps one subscriber connection. The mutex serializes writes:
// the handler's initial snapshot, the broadcast loop and the shutdown
// close frame may all target the same connection, and gorilla/websocket
// allows only one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Server pushes periodic state snapshots to websocket subscribers and
// serves the same snapshot on GET /state.
type Server struct {
	src      StateSource
	log      *logger.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	srv     *http.Server
}

// NewServer builds a monitor server pushing one snapshot per interval.
func NewServer(src StateSource, log *logger.Logger, interval time.Duration) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Server{
		src:      src,
		log:      log,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The monitor binds to an operator-facing address; origin
			// policy is left to whatever fronts it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the monitor's routes, for embedding or tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves until ctx is cancelled. Blocking.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.mu.Lock()
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	s.mu.Unlock()

	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("monitor shutdown", zap.Error(err))
		}
	}()

	s.log.Info("monitor listening", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateMessage{Timestamp: time.Now(), State: s.src.State()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("monitor client connected",
		zap.String("remote", conn.RemoteAddr().String()), zap.Int("clients", n))

	// Push the current snapshot immediately so a new dashboard never
	// waits a full interval for its first frame.
	s.send(c, stateMessage{Timestamp: time.Now(), State: s.src.State()})

	// Reader loop exists only to notice the close handshake.
	go func() {
		defer s.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
		}

		msg := stateMessage{Timestamp: time.Now(), State: s.src.State()}
		s.mu.Lock()
		conns := make([]*client, 0, len(s.clients))
		for c := range s.clients {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		for _, c := range conns {
			s.send(c, msg)
		}
	}
}

func (s *Server) send(c *client, msg stateMessage) {
	c.mu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteJSON(msg)
	c.mu.Unlock()
	if err != nil {
		s.drop(c)
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for _, c := range conns {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), deadline)
		c.conn.Close()
		c.mu.Unlock()
	}
}
