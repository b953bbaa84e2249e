// apps/party-server/internal/room/lifecycle.go
//
// Timers and teardown: per-room expiry, the 1 Hz game clock, the background
// sweep, idempotent cleanup and shutdown.
//
// Every timer callback only posts back to the loop. The posted closure checks
// its handle and that the room is still registered, so a timer that lost a
// race with cleanup or replacement ends silently.

package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/clock"
	"github.com/robalobadob/wordle/apps/party-server/internal/ledger"
)

const recordTimeout = 5 * time.Second

type timerHandle struct {
	timer     clock.Timer
	cancelled bool
}

func (h *timerHandle) cancel() {
	if h == nil {
		return
	}
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

// scheduleExpiry replaces the room's expiry timer with one firing after d.
func (s *Service) scheduleExpiry(r *Room, d time.Duration) {
	r.expiry.cancel()
	h := &timerHandle{}
	r.expiry = h
	r.expiresAt = s.clk.Now().Add(d)
	h.timer = s.clk.AfterFunc(d, func() {
		s.post(func() {
			if h.cancelled || !s.owns(r) {
				return
			}
			s.cleanup(r.Code, "expired")
		})
	})
}

// --------------------------------- clock -----------------------------------

func (s *Service) startClock(r *Room) {
	r.ticker.cancel()
	h := &timerHandle{}
	r.ticker = h
	s.scheduleTick(r, h)
}

func (s *Service) scheduleTick(r *Room, h *timerHandle) {
	h.timer = s.clk.AfterFunc(s.cfg.TickInterval, func() {
		s.post(func() {
			if h.cancelled || !s.owns(r) {
				return
			}
			s.tick(r)
			if !h.cancelled && r.ticker == h {
				s.scheduleTick(r, h)
			}
		})
	})
}

func (s *Service) tick(r *Room) {
	now := s.clk.Now()
	if !now.Before(r.GameExpiry) {
		s.endGame(r)
		return
	}
	s.broadcast(r, EventGameTimeSync, GameTimeSync{TimeRemaining: r.RemainingSeconds(now)})
}

// --------------------------------- sweep -----------------------------------

func (s *Service) scheduleSweep() {
	s.sweeper = s.clk.AfterFunc(s.cfg.SweepInterval, func() {
		s.post(func() {
			if s.stopped {
				return
			}
			s.sweep()
			s.scheduleSweep()
		})
	})
}

// sweep is the safety net behind the per-room timers.
func (s *Service) sweep() {
	now := s.clk.Now()
	for _, code := range s.rooms.Codes() {
		r, ok := s.rooms.Get(code)
		if !ok {
			continue
		}
		empty := r.Len() == 0
		switch {
		case empty && r.Active:
			s.cleanup(code, "sweep: empty")
		case empty && now.Sub(r.CreatedAt) >= s.cfg.InitialTimeout:
			s.cleanup(code, "sweep: never joined")
		case !now.Before(r.expiresAt):
			s.cleanup(code, "sweep: expired")
		}
	}
}

// ------------------------------- teardown ----------------------------------

// cleanup cancels the room's timers, tells remaining members the room expired
// and removes it. A second call for the same code is a no-op.
func (s *Service) cleanup(code, reason string) {
	r, ok := s.rooms.Remove(code)
	if !ok {
		return
	}
	r.expiry.cancel()
	r.ticker.cancel()
	r.ticker = nil
	r.InProgress = false

	for _, p := range r.Members() {
		s.send(p.ID, EventRoomExpired, RoomExpired{RoomID: code, Message: msgRoomExpired})
		if s.sessions[p.ID] == code {
			delete(s.sessions, p.ID)
		}
	}
	log.Info().Str("room", code).Str("reason", reason).Int("players", r.Len()).Msg("room cleaned up")
}

// shutdown releases every room and timer. Clients are told by the gateway,
// which also reaches connections that never joined a room.
func (s *Service) shutdown() {
	s.stopped = true
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	for _, code := range s.rooms.Codes() {
		r, _ := s.rooms.Remove(code)
		r.expiry.cancel()
		r.ticker.cancel()
	}
	clear(s.sessions)
}

// record hands the finished game to the ledger off-loop.
func (s *Service) record(r *Room, ended time.Time) {
	if s.recorder == nil {
		return
	}
	res := ledger.GameResult{
		RoomCode:  r.Code,
		StartedAt: r.GameStart,
		EndedAt:   ended,
		WordCount: len(r.Words),
	}
	for _, p := range r.Members() {
		res.Players = append(res.Players, ledger.PlayerResult{
			Username:       p.Username,
			CorrectGuesses: p.CorrectGuesses,
			TotalAttempts:  p.TotalAttempts,
			WordsPlayed:    p.CurrentWordIndex,
		})
	}
	rec := s.recorder
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := rec.Record(ctx, res); err != nil {
			log.Warn().Err(err).Str("room", res.RoomCode).Msg("record game")
		}
	})
}
