package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/party-server/internal/clock"
	"github.com/robalobadob/wordle/apps/party-server/internal/ledger"
)

// ---------------------------------- fakes ----------------------------------

type sent struct {
	conn    string
	event   string
	payload any
}

type notifier struct {
	mu   sync.Mutex
	msgs []sent
}

func (n *notifier) Send(conn, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, sent{conn, event, payload})
}

func (n *notifier) count(conn, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if m.conn == conn && m.event == event {
			c++
		}
	}
	return c
}

func (n *notifier) last(conn, event string) any {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.msgs) - 1; i >= 0; i-- {
		if n.msgs[i].conn == conn && n.msgs[i].event == event {
			return n.msgs[i].payload
		}
	}
	return nil
}

func (n *notifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = nil
}

func (n *notifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

type fixedWords []string

func (w fixedWords) Sequence(_ context.Context, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = w[i%len(w)]
	}
	return out
}

type MockRecorder struct{ mock.Mock }

func (m *MockRecorder) Record(ctx context.Context, g ledger.GameResult) error {
	return m.Called(ctx, g).Error(0)
}

var testWords = fixedWords{"CRANE", "SLATE", "PIVOT", "GHOST"}

type harness struct {
	svc  *Service
	clk  *clock.Fake
	sent *notifier
}

// newHarness returns a Service whose loop and async work run inline.
func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{clk: clock.NewFake(t0), sent: &notifier{}}
	opts = append([]Option{WithClock(h.clk)}, opts...)
	h.svc = NewService(cfg, testWords, h.sent, opts...)
	h.svc.post = func(fn func()) { fn() }
	h.svc.async = func(fn func()) { fn() }
	h.svc.scheduleSweep()
	return h
}

func (h *harness) create(t *testing.T) string {
	t.Helper()
	code, err := h.svc.createRoom()
	require.NoError(t, err)
	return code
}

func (h *harness) room(t *testing.T, code string) *Room {
	t.Helper()
	r, ok := h.svc.rooms.Get(code)
	require.True(t, ok, "room %s should exist", code)
	return r
}

// started creates a room with the given players (first is admin) and starts a game.
func (h *harness) started(t *testing.T, users ...string) (string, *Room) {
	t.Helper()
	code := h.create(t)
	for i, u := range users {
		h.svc.JoinRoom(conn(i), code, u)
	}
	h.svc.StartGame(conn(0), code)
	r := h.room(t, code)
	require.True(t, r.InProgress)
	return code, r
}

func conn(i int) string { return "c" + string(rune('1'+i)) }

// --------------------------------- joining ---------------------------------

func TestJoin_FirstPlayerBecomesAdminAndActivatesRoom(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	r := h.room(t, code)
	assert.False(t, r.Active)
	assert.Equal(t, t0.Add(2*time.Minute), r.expiresAt)

	h.svc.JoinRoom("c1", code, "alice")

	js, ok := h.sent.last("c1", EventJoinSuccess).(JoinSuccess)
	require.True(t, ok)
	assert.True(t, js.IsAdmin)
	assert.Equal(t, code, js.RoomID)
	assert.Equal(t, "c1", js.PlayerID)
	assert.True(t, r.Active)
	assert.Equal(t, t0.Add(30*time.Minute), r.expiresAt)
	assert.Equal(t, 1, h.sent.count("c1", EventPlayerJoined))
	assert.Equal(t, 1, h.sent.count("c1", EventGameState))
}

func TestJoin_DuplicateUsernameRejected(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "alice")

	assert.Equal(t, Message{Message: msgUsernameTaken}, h.sent.last("c2", EventJoinError))
	assert.Equal(t, 1, h.room(t, code).Len())

	h.svc.JoinRoom("c3", code, "Alice")
	assert.Equal(t, 2, h.room(t, code).Len())
}

func TestJoin_FourthPlayerGetsRoomFull(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	for i, u := range []string{"alice", "bob", "carol"} {
		h.svc.JoinRoom(conn(i), code, u)
	}
	h.svc.JoinRoom("c9", code, "dave")

	assert.Equal(t, Message{Message: msgRoomFull}, h.sent.last("c9", EventRoomFull))
	assert.Equal(t, 3, h.room(t, code).Len())
	assert.Equal(t, 3, h.sent.count("c1", EventPlayerJoined))
}

func TestJoin_UnknownRoom(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.svc.JoinRoom("c1", "999999", "alice")
	assert.Equal(t, Message{Message: msgRoomNotFound}, h.sent.last("c1", EventJoinError))
}

func TestJoin_RejectedWhileGameInProgress(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, _ := h.started(t, "alice", "bob")

	h.svc.JoinRoom("c9", code, "carol")
	assert.Equal(t, Message{Message: msgGameInProgress}, h.sent.last("c9", EventJoinError))
}

func TestJoin_SameConnectionResyncsWithCurrentWord(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice")
	h.svc.SubmitGuess("c1", code, "crane", 1)
	h.sent.reset()

	h.svc.JoinRoom("c1", code, "alice")

	js, ok := h.sent.last("c1", EventJoinSuccess).(JoinSuccess)
	require.True(t, ok)
	assert.True(t, js.GameInProgress)
	assert.Equal(t, "SLATE", js.CurrentWord)
	assert.Equal(t, 300, js.RemainingTime)
	assert.Equal(t, 1, r.Len())
	assert.Zero(t, h.sent.count("c1", EventPlayerJoined))
}

func TestJoin_SwitchingRoomsLeavesThePreviousOne(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	first := h.create(t)
	second := h.create(t)
	h.svc.JoinRoom("c1", first, "alice")
	h.svc.JoinRoom("c2", first, "bob")

	h.svc.JoinRoom("c2", second, "bob")

	assert.Equal(t, 1, h.room(t, first).Len())
	assert.Equal(t, 1, h.room(t, second).Len())
	assert.Equal(t, UserEvent{Username: "bob"}, h.sent.last("c1", EventPlayerLeft))
	assert.Equal(t, second, h.svc.sessions["c2"])
}

// --------------------------------- leaving ---------------------------------

func TestLeave_AdminLeavesNextPlayerPromoted(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")
	h.svc.JoinRoom("c3", code, "carol")

	h.svc.LeaveRoom("c1", code)

	r := h.room(t, code)
	assert.True(t, r.Player("c2").IsAdmin)
	assert.False(t, r.Player("c3").IsAdmin)
	assert.Equal(t, UserEvent{Username: "alice"}, h.sent.last("c3", EventPlayerLeft))
}

func TestLeave_LastPlayerCleansUpRoom(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")

	h.svc.LeaveRoom("c1", code)

	_, ok := h.svc.rooms.Get(code)
	assert.False(t, ok)
	assert.Zero(t, h.sent.count("c1", EventRoomExpired))
	assert.Empty(t, h.svc.sessions)
}

func TestDisconnect_LeavesBoundRoom(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")

	h.svc.Disconnect("c2")
	h.svc.Disconnect("never-joined")

	assert.Equal(t, 1, h.room(t, code).Len())
}

// -------------------------------- kick/ready -------------------------------

func TestKick_OnlyAdmin(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")

	h.svc.KickPlayer("c2", code, "c1")
	assert.Equal(t, Message{Message: msgNotAdminKick}, h.sent.last("c2", EventError))
	assert.Equal(t, 2, h.room(t, code).Len())

	h.svc.KickPlayer("c1", code, "c2")
	assert.Equal(t, Message{Message: msgKicked}, h.sent.last("c2", EventForceKick))
	assert.Equal(t, UserEvent{Username: "bob"}, h.sent.last("c1", EventPlayerLeft))
	assert.Equal(t, 1, h.room(t, code).Len())
	assert.NotContains(t, h.svc.sessions, "c2")
}

func TestKick_SelfRefused(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")

	h.svc.KickPlayer("c1", code, "c1")
	assert.Equal(t, Message{Message: msgKickSelf}, h.sent.last("c1", EventError))
	assert.Equal(t, 1, h.room(t, code).Len())
}

func TestReady_AggregateOverNonAdmins(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.PlayerReady("c1", code)
	assert.False(t, h.sent.last("c1", EventGameState).(GameState).AllPlayersReady)

	h.svc.JoinRoom("c2", code, "bob")
	h.svc.PlayerReady("c2", code)

	gs := h.sent.last("c1", EventGameState).(GameState)
	assert.True(t, gs.AllPlayersReady)
	assert.False(t, gs.GameInProgress)
	assert.False(t, h.room(t, code).Player("c1").IsReady)
}

// ---------------------------------- game -----------------------------------

func TestStartGame_OnlyCreator(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")

	h.svc.StartGame("c2", code)
	assert.Equal(t, Message{Message: msgNotCreator}, h.sent.last("c2", EventError))
	assert.False(t, h.room(t, code).InProgress)
}

func TestStartGame_SendsFirstWordAndStartsClock(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice", "bob")

	for _, c := range []string{"c1", "c2"} {
		gs, ok := h.sent.last(c, EventGameStarted).(GameStarted)
		require.True(t, ok)
		assert.Equal(t, "CRANE", gs.Word)
		assert.Equal(t, 300, gs.TimeLimit)
		assert.Len(t, gs.Players, 2)
	}
	assert.Len(t, r.Words, 30)
	assert.Equal(t, t0.Add(5*time.Minute), r.GameExpiry)
	assert.NotNil(t, r.ticker)

	h.svc.StartGame("c1", code)
	assert.Equal(t, Message{Message: msgGameInProgress}, h.sent.last("c1", EventError))

	h.clk.Advance(time.Second)
	assert.Equal(t, GameTimeSync{TimeRemaining: 299}, h.sent.last("c2", EventGameTimeSync))
}

func TestGameClock_EndsGameAfterDuration(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, r := h.started(t, "alice", "bob")

	h.clk.Advance(5 * time.Minute)

	assert.False(t, r.InProgress)
	assert.Nil(t, r.ticker)
	assert.Equal(t, 299, h.sent.count("c1", EventGameTimeSync))
	for _, c := range []string{"c1", "c2"} {
		ge, ok := h.sent.last(c, EventGameEnded).(GameEnded)
		require.True(t, ok)
		assert.Equal(t, 0, ge.RemainingTime)
		assert.Equal(t, c == "c1", ge.IsCreator)
		assert.Len(t, ge.Players, 2)
	}

	// the clock does not keep ticking
	h.clk.Advance(10 * time.Second)
	assert.Equal(t, 299, h.sent.count("c1", EventGameTimeSync))
	assert.Equal(t, 1, h.sent.count("c1", EventGameEnded))
}

func TestGameClock_RestartReplacesTicker(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice")
	first := r.ticker

	h.svc.EndGame("c1", code)
	h.svc.StartGame("c1", code)

	assert.True(t, first.cancelled)
	assert.NotSame(t, first, r.ticker)
	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.sent.count("c1", EventGameTimeSync))
}

func TestEndGame_OnlyAdmin(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice", "bob")

	h.svc.EndGame("c2", code)
	assert.Equal(t, Message{Message: msgNotAdminEnd}, h.sent.last("c2", EventError))
	assert.True(t, r.InProgress)

	h.svc.EndGame("c1", code)
	assert.False(t, r.InProgress)
	ge := h.sent.last("c2", EventGameEnded).(GameEnded)
	assert.Equal(t, 300, ge.RemainingTime)
}

func TestSubmitGuess_CorrectOnThirdAttempt(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice", "bob")

	h.svc.SubmitGuess("c1", code, "slate", 1)
	h.svc.SubmitGuess("c1", code, "pivot", 2)
	h.svc.SubmitGuess("c1", code, "crane", 3)

	p := r.Player("c1")
	assert.Equal(t, 1, p.CorrectGuesses)
	assert.Equal(t, 3, p.TotalAttempts)
	assert.Equal(t, 0, p.CurrentAttempts)
	assert.Equal(t, 1, p.CurrentWordIndex)

	assert.Equal(t, NewWord{Word: "SLATE", WordIndex: 1}, h.sent.last("c1", EventNewWord))
	assert.Zero(t, h.sent.count("c2", EventNewWord), "words are private")
	assert.Equal(t, PlayerGuessedWord{Username: "alice", Score: 1}, h.sent.last("c2", EventPlayerGuessedWord))
	assert.Equal(t, 3, h.sent.count("c2", EventUpdateScores))

	gr := h.sent.last("c1", EventGuessResult).(GuessResult)
	assert.True(t, gr.Correct)
	assert.Equal(t, 3, gr.Attempts)
}

func TestSubmitGuess_SixFailuresRevealsWord(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice")

	for i := 1; i <= 6; i++ {
		h.svc.SubmitGuess("c1", code, "ghost", i)
	}

	p := r.Player("c1")
	assert.Equal(t, 0, p.CorrectGuesses)
	assert.Equal(t, 6, p.TotalAttempts)
	assert.Equal(t, 0, p.CurrentAttempts)
	assert.Equal(t, 1, p.CurrentWordIndex)
	assert.Equal(t, AllAttemptsUsed{CorrectWord: "CRANE", NextWord: "SLATE"}, h.sent.last("c1", EventAllAttemptsUsed))
	assert.Zero(t, h.sent.count("c1", EventCompletedAllWords))
}

func TestSubmitGuess_AttemptsNeverExceedSix(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice")

	h.svc.SubmitGuess("c1", code, "crane", 9)

	p := r.Player("c1")
	assert.Equal(t, 6, p.TotalAttempts)
	assert.Equal(t, 1, p.CorrectGuesses)
}

func TestSubmitGuess_IgnoredWithoutGame(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	before := h.sent.len()

	h.svc.SubmitGuess("c1", code, "crane", 1)
	h.svc.SubmitGuess("c1", "000000", "crane", 1)
	h.svc.SubmitGuess("c9", code, "crane", 1)

	assert.Equal(t, before, h.sent.len())
}

func TestSubmitGuess_CompletingAllWordsEndsGame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerGame = 2
	h := newHarness(t, cfg)
	code, r := h.started(t, "alice")

	h.svc.SubmitGuess("c1", code, "crane", 1)
	h.svc.SubmitGuess("c1", code, "slate", 2)

	assert.Equal(t, CompletedAllWords{CorrectGuesses: 2, TotalAttempts: 3}, h.sent.last("c1", EventCompletedAllWords))
	assert.False(t, r.InProgress)
	assert.Equal(t, 1, h.sent.count("c1", EventGameEnded))

	// further guesses are ignored
	before := h.sent.len()
	h.svc.SubmitGuess("c1", code, "crane", 1)
	assert.Equal(t, before, h.sent.len())
}

func TestStartGame_RoomGoneWhileFetchingWords(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	var pending func()
	h.svc.async = func(fn func()) { pending = fn }

	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.StartGame("c1", code)
	require.NotNil(t, pending)

	h.svc.LeaveRoom("c1", code)
	assert.NotPanics(t, pending)
	assert.Zero(t, h.sent.count("c1", EventGameStarted))
}

func TestStartGame_SecondRequestWhileFetching(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	var pending []func()
	h.svc.async = func(fn func()) { pending = append(pending, fn) }

	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.StartGame("c1", code)
	h.svc.StartGame("c1", code)

	require.Len(t, pending, 1)
	assert.Equal(t, Message{Message: msgGameInProgress}, h.sent.last("c1", EventError))
	pending[0]()
	assert.True(t, h.room(t, code).InProgress)
}

// --------------------------------- expiry ----------------------------------

func TestExpiry_UnjoinedRoomRemovedAfterInitialTimeout(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)

	h.clk.Advance(2*time.Minute - time.Second)
	h.room(t, code)

	h.clk.Advance(time.Second)
	_, ok := h.svc.rooms.Get(code)
	assert.False(t, ok)
}

func TestExpiry_ActiveRoomRemovedOnceAfterActiveTimeout(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")

	h.clk.Advance(3 * time.Minute)
	h.room(t, code)

	h.clk.Advance(30 * time.Minute)
	_, ok := h.svc.rooms.Get(code)
	assert.False(t, ok)
	assert.Equal(t, 1, h.sent.count("c1", EventRoomExpired))
	assert.Empty(t, h.svc.sessions)
}

func TestExpiry_CleanupStopsGameClock(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code, r := h.started(t, "alice")
	h.clk.Advance(2 * time.Second)

	h.svc.cleanup(code, "test")
	h.clk.Advance(10 * time.Second)

	assert.Nil(t, r.ticker)
	assert.Equal(t, 2, h.sent.count("c1", EventGameTimeSync))
	assert.Zero(t, h.sent.count("c1", EventGameEnded))
}

func TestCleanup_Idempotent(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")

	h.svc.cleanup(code, "test")
	h.svc.cleanup(code, "test")

	assert.Equal(t, 1, h.sent.count("c1", EventRoomExpired))
	assert.Equal(t, 1, h.sent.count("c2", EventRoomExpired))
	assert.Equal(t, RoomExpired{RoomID: code, Message: msgRoomExpired}, h.sent.last("c2", EventRoomExpired))
}

func TestSweep_RemovesEmptyActiveRooms(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	r := h.room(t, code)
	// emptied without going through leaveRoom
	r.Active = true

	h.clk.Advance(30 * time.Second)
	_, ok := h.svc.rooms.Get(code)
	assert.False(t, ok)
}

func TestSweep_RemovesOverdueRoomWithoutTimer(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	code := h.create(t)
	h.svc.JoinRoom("c1", code, "alice")
	h.svc.JoinRoom("c2", code, "bob")
	r := h.room(t, code)

	// lost per-room timer; only the deadline remains
	r.expiry.cancel()
	r.expiresAt = h.clk.Now().Add(10 * time.Second)

	h.clk.Advance(20 * time.Second)
	_, ok := h.svc.rooms.Get(code)
	require.True(t, ok, "nothing removes the room before the sweep runs")

	h.clk.Advance(10 * time.Second)
	_, ok = h.svc.rooms.Get(code)
	assert.False(t, ok)

	h.clk.Advance(time.Hour)
	assert.Equal(t, 1, h.sent.count("c1", EventRoomExpired))
	assert.Equal(t, 1, h.sent.count("c2", EventRoomExpired))
	assert.Empty(t, h.svc.sessions)
}

// --------------------------------- ledger ----------------------------------

func TestEndGame_RecordsResult(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("Record", mock.Anything, mock.MatchedBy(func(g ledger.GameResult) bool {
		return g.WordCount == 30 && len(g.Players) == 2 &&
			g.Players[0].Username == "alice" && g.Players[0].CorrectGuesses == 1 &&
			g.Players[0].WordsPlayed == 1 && g.StartedAt.Equal(t0)
	})).Return(nil).Once()

	h := newHarness(t, DefaultConfig(), WithRecorder(rec))
	code, _ := h.started(t, "alice", "bob")
	h.svc.SubmitGuess("c1", code, "crane", 2)
	h.svc.EndGame("c1", code)

	rec.AssertExpectations(t)
}

func TestEndGame_RecorderErrorIsNotFatal(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	h := newHarness(t, DefaultConfig(), WithRecorder(rec))
	code, r := h.started(t, "alice")
	assert.NotPanics(t, func() { h.svc.EndGame("c1", code) })
	assert.False(t, r.InProgress)
}

// ---------------------------------- loop -----------------------------------

func TestService_RunLoop(t *testing.T) {
	n := &notifier{}
	svc := NewService(DefaultConfig(), testWords, n, WithClock(clock.NewFake(t0)))
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	code, err := svc.CreateRoom(context.Background())
	require.NoError(t, err)

	ok, err := svc.RoomExists(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, ok)

	svc.JoinRoom("c1", code, "alice")
	st, err := svc.RoomState(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, st.IsActive)
	assert.Equal(t, []string{"alice"}, usernames(st.Players))

	_, err = svc.RoomState(context.Background(), "999999")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	cancel()
	select {
	case <-svc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	_, err = svc.CreateRoom(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	svc.JoinRoom("c2", code, "bob") // must not block after stop
}
