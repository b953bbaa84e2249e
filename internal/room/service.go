// apps/party-server/internal/room/service.go
//
// Service is the multiplayer coordinator.
// Responsibilities:
//   - Owns the Registry and every Room in it.
//   - Serialises inbound connection events, timer callbacks and async
//     completions on one goroutine (Run), so rooms are never locked.
//   - Pushes results to connections through a Notifier.
//
// Notes:
//   - Public methods never touch room state directly; they post a closure to
//     the loop. Request/response calls (CreateRoom, RoomState, ...) wait for
//     the closure to run.
//   - Slow work (word fetching, ledger writes) runs off-loop and posts its
//     result back; the handler that resumes re-validates the room first.

package room

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/clock"
	"github.com/robalobadob/wordle/apps/party-server/internal/ledger"
)

var (
	// ErrRoomNotFound is returned by RoomState for unknown or expired codes.
	ErrRoomNotFound = errors.New("room: not found")
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("room: service stopped")
)

// Notifier delivers one event to one connection. Implementations must not
// block; the event loop calls Send inline.
type Notifier interface {
	Send(connID, event string, payload any)
}

// WordSource produces the word sequence for a new game.
type WordSource interface {
	Sequence(ctx context.Context, n int) []string
}

// Recorder persists finished games.
type Recorder interface {
	Record(ctx context.Context, g ledger.GameResult) error
}

// Config holds the room policy knobs.
type Config struct {
	MaxPlayers       int
	WordsPerGame     int
	GameDuration     time.Duration
	InitialTimeout   time.Duration
	ActiveTimeout    time.Duration
	SweepInterval    time.Duration
	TickInterval     time.Duration
	WordFetchTimeout time.Duration
}

// DefaultConfig is 3 players, 30 words, 5 minute games.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:       3,
		WordsPerGame:     30,
		GameDuration:     5 * time.Minute,
		InitialTimeout:   2 * time.Minute,
		ActiveTimeout:    30 * time.Minute,
		SweepInterval:    30 * time.Second,
		TickInterval:     time.Second,
		WordFetchTimeout: 4 * time.Second,
	}
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the real clock (tests).
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clk = c } }

// WithRecorder enables match history.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(g CodeGenerator) Option { return func(s *Service) { s.gen = g } }

// Service coordinates all rooms. Create with NewService and start with Run.
type Service struct {
	cfg      Config
	clk      clock.Clock
	words    WordSource
	notify   Notifier
	recorder Recorder
	gen      CodeGenerator

	rooms    *Registry
	sessions map[string]string // connection id → room code

	inbox   chan func()
	done    chan struct{}
	base    context.Context
	sweeper clock.Timer
	stopped bool

	// post runs fn on the loop; async runs fn off it. Both are replaced by
	// inline versions in tests.
	post  func(fn func())
	async func(fn func())
}

// NewService wires a coordinator. notify receives every outbound event.
func NewService(cfg Config, words WordSource, notify Notifier, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		clk:      clock.Real(),
		words:    words,
		notify:   notify,
		sessions: make(map[string]string),
		inbox:    make(chan func(), 1024),
		done:     make(chan struct{}),
		base:     context.Background(),
	}
	for _, o := range opts {
		o(s)
	}
	s.rooms = NewRegistry(cfg.MaxPlayers, s.gen)
	s.post = s.enqueue
	s.async = func(fn func()) { go fn() }
	return s
}

// Run processes events until ctx is cancelled, then releases every room and
// timer. It must be called exactly once.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	s.base = ctx
	s.scheduleSweep()
	log.Info().Int("maxPlayers", s.cfg.MaxPlayers).Dur("gameDuration", s.cfg.GameDuration).Msg("room service started")
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-ctx.Done():
			s.shutdown()
			log.Info().Msg("room service stopped")
			return
		}
	}
}

// Done is closed when Run returns.
func (s *Service) Done() <-chan struct{} { return s.done }

func (s *Service) enqueue(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// do runs fn on the loop and waits for it.
func (s *Service) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.inbox <- func() { defer close(finished); fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// ----------------------------- request/response ----------------------------

// CreateRoom allocates a waiting room and returns its code.
func (s *Service) CreateRoom(ctx context.Context) (string, error) {
	var (
		code string
		err  error
	)
	if e := s.do(ctx, func() { code, err = s.createRoom() }); e != nil {
		return "", e
	}
	return code, err
}

// RoomExists reports whether code names a live room.
func (s *Service) RoomExists(ctx context.Context, code string) (bool, error) {
	var ok bool
	if err := s.do(ctx, func() { _, ok = s.rooms.Get(code) }); err != nil {
		return false, err
	}
	return ok, nil
}

// RoomState returns the getRoomState projection.
func (s *Service) RoomState(ctx context.Context, code string) (State, error) {
	var (
		st State
		ok bool
	)
	if err := s.do(ctx, func() { st, ok = s.state(code) }); err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, ErrRoomNotFound
	}
	return st, nil
}

// ------------------------------ fire and forget ----------------------------

func (s *Service) JoinRoom(connID, code, username string) {
	s.post(func() { s.joinRoom(connID, code, username) })
}

func (s *Service) LeaveRoom(connID, code string) {
	s.post(func() { s.leaveRoom(connID, code) })
}

func (s *Service) KickPlayer(connID, code, target string) {
	s.post(func() { s.kickPlayer(connID, code, target) })
}

func (s *Service) PlayerReady(connID, code string) {
	s.post(func() { s.playerReady(connID, code) })
}

func (s *Service) StartGame(connID, code string) {
	s.post(func() { s.startGame(connID, code) })
}

func (s *Service) EndGame(connID, code string) {
	s.post(func() { s.requestEndGame(connID, code) })
}

func (s *Service) SubmitGuess(connID, code, word string, attempts int) {
	s.post(func() { s.submitGuess(connID, code, word, attempts) })
}

// Disconnect removes the connection from whatever room it was bound to.
func (s *Service) Disconnect(connID string) {
	s.post(func() {
		if code, ok := s.sessions[connID]; ok {
			s.leaveRoom(connID, code)
		}
	})
}

// --------------------------------- helpers ---------------------------------

func (s *Service) send(connID, event string, payload any) {
	s.notify.Send(connID, event, payload)
}

func (s *Service) broadcast(r *Room, event string, payload any) {
	for _, p := range r.Members() {
		s.notify.Send(p.ID, event, payload)
	}
}

func (s *Service) broadcastState(r *Room) {
	s.broadcast(r, EventGameState, GameState{
		Players:         r.Snapshot(),
		RemainingTime:   r.RemainingSeconds(s.clk.Now()),
		GameInProgress:  r.InProgress,
		AllPlayersReady: r.AllNonAdminsReady(),
	})
}

// owns reports whether r is still the registered room for its code. Timer
// callbacks and async completions check this before touching r.
func (s *Service) owns(r *Room) bool {
	cur, ok := s.rooms.Get(r.Code)
	return ok && cur == r
}

func (s *Service) state(code string) (State, bool) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return State{}, false
	}
	return State{Players: r.Snapshot(), IsActive: r.Active, GameInProgress: r.InProgress}, true
}
