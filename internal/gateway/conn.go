// apps/party-server/internal/gateway/conn.go
//
// Per-connection pumps and inbound dispatch.
// readPump owns reads and tears the connection down when they fail.
// writePump owns writes (frames + pings) and closes the socket on exit.

package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/room"
)

const (
	msgSlowDown  = "Too many messages, slow down."
	msgMalformed = "Malformed message."
)

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// enqueue reports false when the send queue is full.
func (c *conn) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *conn) close() { c.once.Do(func() { close(c.done) }) }

func (g *Gateway) readPump(c *conn, coord Coordinator) {
	defer func() {
		g.unregister(c)
		c.close()
		coord.Disconnect(c.id)
		if g.limiter != nil {
			g.limiter.Forget(limiterKey(c.id))
		}
		log.Debug().Str("conn", c.id).Msg("ws disconnected")
	}()

	c.ws.SetReadLimit(g.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(g.cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug().Err(err).Str("conn", c.id).Msg("ws read")
			}
			return
		}
		if g.limiter != nil && !g.limiter.Allow(limiterKey(c.id)) {
			g.Send(c.id, EventError, message{Message: msgSlowDown})
			continue
		}
		g.dispatch(c.id, coord, data)
	}
}

func (g *Gateway) writePump(c *conn) {
	ticker := time.NewTicker(g.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case b := <-c.send:
			if err := g.write(c, b); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("ws write")
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			g.flush(c)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(g.cfg.WriteTimeout))
			return
		}
	}
}

func (g *Gateway) write(c *conn, b []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// flush writes whatever is still queued (serverShutdown, forceKick) before
// the close frame.
func (g *Gateway) flush(c *conn) {
	for {
		select {
		case b := <-c.send:
			if err := g.write(c, b); err != nil {
				return
			}
		default:
			return
		}
	}
}

func limiterKey(connID string) string { return "ws:" + connID }

// dispatch decodes one inbound frame and forwards it to the coordinator.
// Bad frames get a private error and are otherwise ignored.
func (g *Gateway) dispatch(connID string, coord Coordinator, data []byte) {
	var env envelope
	if err := decode(data, &env); err != nil || env.Event == "" {
		g.Send(connID, EventError, message{Message: msgMalformed})
		return
	}

	fail := func(err error) {
		log.Debug().Err(err).Str("conn", connID).Str("event", env.Event).Msg("rejected payload")
		g.Send(connID, EventError, message{Message: err.Error()})
	}

	switch env.Event {
	case evJoinRoom:
		var req joinRoomReq
		if err := decode(env.Data, &req); err != nil {
			fail(err)
			return
		}
		username := strings.TrimSpace(req.Username)
		if username == "" {
			fail(errors.New("invalid username"))
			return
		}
		coord.JoinRoom(connID, string(req.RoomID), username)

	case evLeaveRoom, evPlayerReady, evStartGame, evEndGame:
		var req roomReq
		if err := decode(env.Data, &req); err != nil {
			fail(err)
			return
		}
		code := string(req.RoomID)
		switch env.Event {
		case evLeaveRoom:
			coord.LeaveRoom(connID, code)
		case evPlayerReady:
			coord.PlayerReady(connID, code)
		case evStartGame:
			coord.StartGame(connID, code)
		case evEndGame:
			coord.EndGame(connID, code)
		}

	case evKickPlayer:
		var req kickReq
		if err := decode(env.Data, &req); err != nil {
			fail(err)
			return
		}
		coord.KickPlayer(connID, string(req.RoomID), req.PlayerID)

	case evSubmitGuess, evWordGuessed:
		var req guessReq
		if err := decode(env.Data, &req); err != nil {
			fail(err)
			return
		}
		coord.SubmitGuess(connID, string(req.RoomID), req.GuessedWord, req.Attempts)

	case evGetRoomState:
		var req roomReq
		if err := decode(env.Data, &req); err != nil {
			fail(err)
			return
		}
		g.ackRoomState(connID, coord, string(req.RoomID), env.AckID)

	default:
		fail(errUnknownEvent)
	}
}

// ackRoomState answers getRoomState. An unknown room acks an empty, inactive
// state so the client can tell it apart from a transport failure.
func (g *Gateway) ackRoomState(connID string, coord Coordinator, code string, ackID []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.WriteTimeout)
	defer cancel()

	st, err := coord.RoomState(ctx, code)
	if err != nil {
		if !errors.Is(err, room.ErrRoomNotFound) {
			log.Warn().Err(err).Str("room", code).Msg("room state")
		}
		st = room.State{Players: []room.Player{}}
	}
	g.sendAck(connID, EventAck, st, ackID)
}
