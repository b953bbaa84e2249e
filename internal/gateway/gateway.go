// apps/party-server/internal/gateway/gateway.go
//
// Gateway is the SessionGateway: the WebSocket endpoint that binds each live
// connection to an ephemeral identity and forwards its events to the room
// Coordinator. It also implements room.Notifier, so the coordinator pushes
// events back to connections through it.
//
// Notes:
//   - One connection = one identity (a UUID) announced with a "session" event.
//   - Outbound frames are queued per connection; a full queue means the client
//     is too slow and the connection is dropped rather than blocking the room
//     loop.
//   - Inbound frames are rate limited per connection before dispatch.

package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/party-server/internal/room"
)

// Coordinator is the room-side API the gateway drives.
type Coordinator interface {
	JoinRoom(connID, code, username string)
	LeaveRoom(connID, code string)
	KickPlayer(connID, code, target string)
	PlayerReady(connID, code string)
	StartGame(connID, code string)
	EndGame(connID, code string)
	SubmitGuess(connID, code, word string, attempts int)
	Disconnect(connID string)
	RoomState(ctx context.Context, code string) (room.State, error)
}

type Config struct {
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	// AllowedOrigins restricts the Origin header; empty allows any.
	AllowedOrigins []string
}

// DefaultConfig mirrors the keepalive values used by most gorilla servers.
func DefaultConfig() Config {
	return Config{
		PingPeriod:     54 * time.Second,
		PongWait:       60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

type Gateway struct {
	cfg      Config
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	coord  Coordinator
	conns  map[string]*conn
	closed bool
	wg     sync.WaitGroup
}

// New returns a Gateway. limiter may be nil to disable per-connection limits.
// Bind must be called before the first connection is accepted.
func New(cfg Config, limiter *ratelimit.Limiter) *Gateway {
	g := &Gateway{
		cfg:     cfg,
		limiter: limiter,
		conns:   make(map[string]*conn),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// Bind attaches the coordinator. The coordinator in turn holds the gateway as
// its Notifier, hence the two-step wiring.
func (g *Gateway) Bind(c Coordinator) {
	g.mu.Lock()
	g.coord = c
	g.mu.Unlock()
}

func (g *Gateway) coordinator() Coordinator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.coord
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if len(g.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and starts the connection pumps.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	coord := g.coordinator()
	if coord == nil {
		http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws upgrade failed")
		return
	}

	c := &conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, max(g.cfg.SendBuffer, 1)),
		done: make(chan struct{}),
	}
	if !g.register(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}
	log.Debug().Str("conn", c.id).Str("remote", r.RemoteAddr).Msg("ws connected")

	g.Send(c.id, EventSession, session{PlayerID: c.id})

	go func() {
		defer g.wg.Done()
		g.writePump(c)
	}()
	go func() {
		defer g.wg.Done()
		g.readPump(c, coord)
	}()
}

func (g *Gateway) register(c *conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.conns[c.id] = c
	g.wg.Add(2) // pumps
	return true
}

func (g *Gateway) unregister(c *conn) {
	g.mu.Lock()
	if g.conns[c.id] == c {
		delete(g.conns, c.id)
	}
	g.mu.Unlock()
}

func (g *Gateway) lookup(id string) *conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conns[id]
}

// Len returns the number of live connections.
func (g *Gateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// Send queues one event for one connection. Unknown ids are ignored; a
// connection whose queue is full is dropped.
func (g *Gateway) Send(connID, event string, payload any) {
	g.sendAck(connID, event, payload, nil)
}

func (g *Gateway) sendAck(connID, event string, payload any, ackID []byte) {
	c := g.lookup(connID)
	if c == nil {
		return
	}
	b, err := encode(event, payload, ackID)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode outbound")
		return
	}
	if !c.enqueue(b) {
		log.Warn().Str("conn", connID).Str("event", event).Msg("send buffer full, dropping connection")
		c.close()
	}
}

// Shutdown tells every connection the server is going away, closes them and
// waits for their pumps to finish or ctx to expire. New connections are
// refused from the moment Shutdown is called.
func (g *Gateway) Shutdown(ctx context.Context, reason string) error {
	g.mu.Lock()
	g.closed = true
	conns := make([]*conn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		if b, err := encode(EventServerShutdown, message{Message: reason}, nil); err == nil {
			c.enqueue(b)
		}
		c.close()
	}
	log.Info().Int("connections", len(conns)).Msg("gateway shutting down")

	finished := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
