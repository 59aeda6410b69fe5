// Package live streams finished rounds to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Config holds websocket tuning.
type Config struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	CheckOrigin    func(r *http.Request) bool
}

// DefaultConfig returns the stock websocket tuning.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   5 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 512,
		SendBuffer:     32,
		CheckOrigin:    func(r *http.Request) bool { return true },
	}
}

// Hub keeps the subscriber set and fans reports out to it. A subscriber
// that cannot keep up is dropped rather than slowing the recorder.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	config   Config
	log      logger.Logger
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// NewHub creates a hub. A nil logger discards output.
func NewHub(config Config, log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	def := DefaultConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		log:    log,
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	s := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		hub:  h,
	}
	h.register(s)
	go s.writePump()
	go s.readPump()
	h.log.Info(r.Context(), "subscriber connected", logger.String("subscriber", s.id))
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.UpdateLiveSubscribers(n)
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	if ok {
		delete(h.subs, s)
		close(s.send)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		metrics.UpdateLiveSubscribers(n)
	}
}

// Publish sends the report to every subscriber without blocking.
func (h *Hub) Publish(ctx context.Context, r model.RoundReport) { //nolint:gocritic // hugeParam
	data, err := json.Marshal(types.FromReport(r))
	if err != nil {
		h.log.Error(ctx, "marshal round for broadcast", logger.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.offer(data) {
			metrics.RecordLiveDropped()
			h.log.Warn(ctx, "subscriber too slow, dropping", logger.String("subscriber", s.id))
			h.unregister(s)
			_ = s.conn.Close()
		}
	}
}

// offer queues data unless the buffer is full or the subscriber is gone.
func (s *subscriber) offer(data []byte) (ok bool) {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	if _, live := s.hub.subs[s]; !live {
		return true
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()
	for _, s := range targets {
		h.unregister(s)
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(s.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		s.hub.unregister(s)
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.config.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; subscribers have nothing to say.
func (s *subscriber) readPump() {
	defer func() {
		s.hub.unregister(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(s.hub.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.hub.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.hub.config.ReadTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.log.Debug(context.Background(), "subscriber read error",
					logger.String("subscriber", s.id), logger.Error(err))
			}
			return
		}
	}
}
