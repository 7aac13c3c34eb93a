// Package hostlink delivers outbound calls to the hosting game environment
// over websocket connections.
package hostlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/ranks/internal/domain/rewards"
	"github.com/okian/ranks/pkg/logger"
	"github.com/okian/ranks/pkg/metrics"
)

const (
	defaultSendBuffer   = 256
	defaultWriteTimeout = 5 * time.Second
	readTimeout         = 60 * time.Second
	pingInterval        = 25 * time.Second
)

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans envelopes out to every attached host.
type Hub struct {
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	seq          atomic.Uint64

	mu     sync.RWMutex
	conns  map[string]*conn
	closed bool

	logger logger.Logger
}

// NewHub returns a hub with no hosts attached.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer:   defaultSendBuffer,
		writeTimeout: defaultWriteTimeout,
		conns:        make(map[string]*conn),
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler upgrades the request and keeps the host attached until it leaves.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn(r.Context(), "host upgrade failed", logger.Error(err))
			return
		}
		c := &conn{
			id:   uuid.NewString(),
			ws:   ws,
			send: make(chan []byte, h.sendBuffer),
			done: make(chan struct{}),
		}
		if !h.attach(c) {
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			_ = ws.Close()
			return
		}
		defer h.detach(c)

		ctx := context.Background()
		h.logger.Info(ctx, "host attached", logger.String("conn", c.id), logger.String("remote", r.RemoteAddr))

		writeErr := make(chan error, 1)
		go func() { writeErr <- h.writeLoop(c) }()

		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		c.close()
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		_ = ws.Close()
		h.logger.Info(ctx, "host detached", logger.String("conn", c.id))
	}
}

func (h *Hub) writeLoop(c *conn) error {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
				time.Now().Add(time.Second))
			return nil
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return err
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.writeTimeout)); err != nil {
				c.close()
				return err
			}
		}
	}
}

func (h *Hub) attach(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c.id] = c
	metrics.UpdateHostConnections(len(h.conns))
	return true
}

func (h *Hub) detach(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.id)
	metrics.UpdateHostConnections(len(h.conns))
}

// Connections returns the number of attached hosts.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close detaches every host and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, c := range h.conns {
		c.close()
	}
	return nil
}

// Deliver sends env to every attached host without blocking. It fails with
// ErrNoHost when nobody is attached and ErrHostBusy when no host had room.
func (h *Hub) Deliver(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env.Seq = h.seq.Add(1)
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		metrics.RecordHostEnvelope(env.Op, "closed")
		return ErrClosed
	}
	if len(h.conns) == 0 {
		metrics.RecordHostEnvelope(env.Op, "no_host")
		return ErrNoHost
	}
	accepted := 0
	for _, c := range h.conns {
		select {
		case c.send <- b:
			accepted++
		default:
		}
	}
	if accepted == 0 {
		metrics.RecordHostEnvelope(env.Op, "busy")
		return ErrHostBusy
	}
	metrics.RecordHostEnvelope(env.Op, "sent")
	return nil
}

// SendMessage sends a direct message to a player.
func (h *Hub) SendMessage(ctx context.Context, playerID, text string) error {
	return h.Deliver(ctx, Envelope{Op: OpMessage, PlayerID: playerID, Text: text})
}

// Broadcast sends a server-wide message.
func (h *Hub) Broadcast(ctx context.Context, text string) error {
	return h.Deliver(ctx, Envelope{Op: OpBroadcast, Text: text})
}

// SendTitle shows a title notice to a player.
func (h *Hub) SendTitle(ctx context.Context, playerID, title, subtitle string) error {
	return h.Deliver(ctx, Envelope{Op: OpTitle, PlayerID: playerID, Title: title, Subtitle: subtitle})
}

// SetNameTag sets the rendered name tag of a player.
func (h *Hub) SetNameTag(ctx context.Context, playerID, tag string) error {
	return h.Deliver(ctx, Envelope{Op: OpNameTag, PlayerID: playerID, Tag: tag})
}

// GrantItem puts an item in a player's inventory.
func (h *Hub) GrantItem(ctx context.Context, playerID string, item rewards.Item) error {
	return h.Deliver(ctx, Envelope{Op: OpGrantItem, PlayerID: playerID, Item: itemPayload(item)})
}

// ApplyEffect applies a potion effect to a player.
func (h *Hub) ApplyEffect(ctx context.Context, playerID string, effect rewards.Effect) error {
	return h.Deliver(ctx, Envelope{Op: OpApplyEffect, PlayerID: playerID, Effect: effectPayload(effect)})
}
