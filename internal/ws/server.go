// Package ws streams the terminal dashboard feed: the order queue, the open
// shift's running totals and low-stock warnings. Clients get a snapshot on
// connect, then diffs-by-snapshot on a poll interval plus instant pushes when
// a handler reports a change.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/config"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Session *pos.Session
	Logger  *zap.Logger
	Config  config.Config

	mu      sync.RWMutex
	clients map[*client]struct{}
	notify  chan struct{}
	started sync.Once
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

func New(session *pos.Session, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{
		Session: session,
		Logger:  logger,
		Config:  cfg,
		clients: make(map[*client]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Notify wakes the broadcast loop after a state mutation so connected
// terminals refresh before the next poll tick.
func (s *Server) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

type feedSnapshot struct {
	Type       string              `json:"type"`
	Shift      *pos.ShiftReport    `json:"shift,omitempty"`
	OpenOrders []pos.Order         `json:"openOrders"`
	LowStock   []pos.InventoryItem `json:"lowStock"`
	At         time.Time           `json:"at"`
}

func (s *Server) snapshot() feedSnapshot {
	snap := feedSnapshot{Type: "terminal.state", At: time.Now().UTC()}
	if shift, ok := s.Session.ActiveShift(); ok {
		snap.Shift = &shift
	}
	for _, o := range s.Session.Orders() {
		if !o.Status.Terminal() {
			snap.OpenOrders = append(snap.OpenOrders, o)
		}
	}
	snap.LowStock = s.Session.LowStock()
	return snap
}

func (s *Server) ensureStarted() {
	s.started.Do(func() {
		go s.broadcastLoop()
	})
}

func (s *Server) broadcastLoop() {
	interval := s.Config.WSTerminalPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-s.notify:
		}

		s.mu.RLock()
		if len(s.clients) == 0 {
			s.mu.RUnlock()
			continue
		}
		snap := s.snapshot()
		for c := range s.clients {
			if err := c.writeJSON(snap); err != nil {
				s.Logger.Debug("terminal feed write failed", zap.Error(err))
			}
		}
		s.mu.RUnlock()
	}
}

// TerminalWS upgrades the connection and streams the terminal feed for the
// lifetime of the socket. The session token travels as a query parameter
// because browsers cannot set headers on websocket handshakes.
func (s *Server) TerminalWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := auth.ParseBearerToken(r.URL.Query().Get("token"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if _, err := auth.VerifyAccessToken(token, s.Config.JWTSecret); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	s.ensureStarted()
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	_ = c.writeJSON(s.snapshot())

	heartbeat := s.Config.WSHeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		for range ticker.C {
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
	case <-r.Context().Done():
	}
}
