// apps/party-server/internal/room/handlers.go
//
// Event handlers. Everything here runs on the Service loop.
// Policy rejections are answered privately to the requester; events naming an
// unknown room or player are dropped without a reply.

package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/game"
)

func (s *Service) createRoom() (string, error) {
	r, err := s.rooms.Create(s.clk.Now())
	if err != nil {
		log.Error().Err(err).Int("rooms", s.rooms.Len()).Msg("create room")
		return "", err
	}
	s.scheduleExpiry(r, s.cfg.InitialTimeout)
	log.Info().Str("room", r.Code).Msg("room created")
	return r.Code, nil
}

// ------------------------------- membership --------------------------------

func (s *Service) joinRoom(connID, code, username string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		s.send(connID, EventJoinError, Message{Message: msgRoomNotFound})
		return
	}
	// Same connection joining again: resync without touching state.
	if p := r.Player(connID); p != nil {
		s.send(connID, EventJoinSuccess, s.joinSuccess(r, p))
		return
	}
	switch {
	case r.InProgress:
		s.send(connID, EventJoinError, Message{Message: msgGameInProgress})
		return
	case r.UsernameTaken(username):
		s.send(connID, EventJoinError, Message{Message: msgUsernameTaken})
		return
	case r.Full():
		s.send(connID, EventRoomFull, Message{Message: msgRoomFull})
		return
	}

	// A connection is bound to at most one room.
	if prev, bound := s.sessions[connID]; bound {
		s.leaveRoom(connID, prev)
	}

	p := r.add(connID, username)
	s.sessions[connID] = code
	if !r.Active {
		r.Active = true
		s.scheduleExpiry(r, s.cfg.ActiveTimeout)
	}
	log.Info().Str("room", code).Str("conn", connID).Str("username", username).
		Bool("admin", p.IsAdmin).Int("players", r.Len()).Msg("player joined")

	s.send(connID, EventJoinSuccess, s.joinSuccess(r, p))
	s.broadcast(r, EventPlayerJoined, UserEvent{Username: username})
	s.broadcastState(r)
}

func (s *Service) joinSuccess(r *Room, p *Player) JoinSuccess {
	js := JoinSuccess{
		RoomID:         r.Code,
		PlayerID:       p.ID,
		Username:       p.Username,
		IsAdmin:        p.IsAdmin,
		Players:        r.Snapshot(),
		GameInProgress: r.InProgress,
		RemainingTime:  r.RemainingSeconds(s.clk.Now()),
	}
	if r.InProgress {
		js.CurrentWord = r.CurrentWord(p)
	}
	return js
}

func (s *Service) leaveRoom(connID, code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p := r.remove(connID)
	if p == nil {
		return
	}
	if s.sessions[connID] == code {
		delete(s.sessions, connID)
	}
	log.Info().Str("room", code).Str("conn", connID).Int("players", r.Len()).Msg("player left")

	if r.Len() == 0 {
		r.Active = false
		s.cleanup(code, "empty")
		return
	}
	s.broadcast(r, EventPlayerLeft, UserEvent{Username: p.Username})
	s.broadcastState(r)
	s.endIfAllCompleted(r)
}

func (s *Service) kickPlayer(connID, code, target string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	req := r.Player(connID)
	if req == nil {
		return
	}
	if !req.IsAdmin {
		s.send(connID, EventError, Message{Message: msgNotAdminKick})
		return
	}
	if target == connID {
		s.send(connID, EventError, Message{Message: msgKickSelf})
		return
	}
	p := r.remove(target)
	if p == nil {
		return
	}
	if s.sessions[target] == code {
		delete(s.sessions, target)
	}
	log.Info().Str("room", code).Str("target", target).Msg("player kicked")

	s.send(target, EventForceKick, Message{Message: msgKicked})
	s.broadcast(r, EventPlayerLeft, UserEvent{Username: p.Username})
	s.broadcastState(r)
	s.endIfAllCompleted(r)
}

func (s *Service) playerReady(connID, code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p := r.Player(connID)
	if p == nil || p.IsAdmin || r.InProgress {
		return
	}
	p.IsReady = true
	s.broadcastState(r)
}

// ---------------------------------- game -----------------------------------

func (s *Service) startGame(connID, code string) {
	r, ok := s.rooms.Get(code)
	if !ok || r.Player(connID) == nil {
		return
	}
	if !r.IsCreator(connID) {
		s.send(connID, EventError, Message{Message: msgNotCreator})
		return
	}
	if r.InProgress || r.starting {
		s.send(connID, EventError, Message{Message: msgGameInProgress})
		return
	}
	r.starting = true

	base, n, timeout := s.base, s.cfg.WordsPerGame, s.cfg.WordFetchTimeout
	s.async(func() {
		ctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		seq := s.words.Sequence(ctx, n)
		s.post(func() { s.beginGame(r, connID, seq) })
	})
}

// beginGame resumes startGame once the words are in. The room, the requester
// and the game state may all have changed meanwhile.
func (s *Service) beginGame(r *Room, connID string, seq []string) {
	r.starting = false
	if !s.owns(r) || r.Len() == 0 {
		log.Debug().Str("room", r.Code).Msg("room gone before game start")
		return
	}
	if !r.IsCreator(connID) || r.InProgress || len(seq) == 0 {
		return
	}

	now := s.clk.Now()
	r.resetForGame(seq)
	r.InProgress = true
	r.GameStart = now
	r.GameExpiry = now.Add(s.cfg.GameDuration)
	s.scheduleExpiry(r, s.cfg.ActiveTimeout)
	s.startClock(r)
	log.Info().Str("room", r.Code).Int("players", r.Len()).Int("words", len(seq)).Msg("game started")

	players := r.Snapshot()
	limit := int(s.cfg.GameDuration / time.Second)
	for _, p := range r.Members() {
		s.send(p.ID, EventGameStarted, GameStarted{Word: r.CurrentWord(p), TimeLimit: limit, Players: players})
	}
	s.broadcastState(r)
}

func (s *Service) requestEndGame(connID, code string) {
	r, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	p := r.Player(connID)
	if p == nil {
		return
	}
	if !p.IsAdmin {
		s.send(connID, EventError, Message{Message: msgNotAdminEnd})
		return
	}
	if !r.InProgress {
		s.send(connID, EventError, Message{Message: msgNoGame})
		return
	}
	s.endGame(r)
}

// endGame flips the room out of play, stops its clock and sends every member
// the final standings.
func (s *Service) endGame(r *Room) {
	if !r.InProgress {
		return
	}
	now := s.clk.Now()
	remaining := r.RemainingSeconds(now)
	r.InProgress = false
	r.ticker.cancel()
	r.ticker = nil

	players := r.Snapshot()
	for _, p := range r.Members() {
		s.send(p.ID, EventGameEnded, GameEnded{Players: players, RemainingTime: remaining, IsCreator: r.IsCreator(p.ID)})
	}
	log.Info().Str("room", r.Code).Int("remaining", remaining).Msg("game ended")
	s.record(r, now)
}

func (s *Service) endIfAllCompleted(r *Room) {
	if r.InProgress && r.AllCompleted() {
		s.endGame(r)
	}
}

// submitGuess is the per-player scoring transition. The attempt count is the
// larger of what the client reports and what the server has seen.
func (s *Service) submitGuess(connID, code, word string, attempts int) {
	r, ok := s.rooms.Get(code)
	if !ok || !r.InProgress {
		return
	}
	p := r.Player(connID)
	if p == nil || r.Completed(p) {
		return
	}

	target := r.Words[p.CurrentWordIndex]
	guess := game.Normalize(word)
	used := max(attempts, p.CurrentAttempts+1)
	correct := guess == target

	s.send(connID, EventGuessResult, GuessResult{
		GuessedWord: guess,
		Marks:       game.Score(target, guess),
		Attempts:    min(used, game.MaxAttempts),
		Correct:     correct,
	})

	switch {
	case correct:
		p.CorrectGuesses++
		p.TotalAttempts += min(max(used, 1), game.MaxAttempts)
		p.CurrentAttempts = 0
		p.CurrentWordIndex++
		s.broadcast(r, EventPlayerGuessedWord, PlayerGuessedWord{Username: p.Username, Score: p.CorrectGuesses})
		if next := r.CurrentWord(p); next != "" {
			s.send(connID, EventNewWord, NewWord{Word: next, WordIndex: p.CurrentWordIndex})
		} else {
			s.send(connID, EventCompletedAllWords, CompletedAllWords{CorrectGuesses: p.CorrectGuesses, TotalAttempts: p.TotalAttempts})
		}

	case used >= game.MaxAttempts:
		p.TotalAttempts += game.MaxAttempts
		p.CurrentAttempts = 0
		p.CurrentWordIndex++
		next := r.CurrentWord(p)
		s.send(connID, EventAllAttemptsUsed, AllAttemptsUsed{CorrectWord: target, NextWord: next})
		if next == "" {
			s.send(connID, EventCompletedAllWords, CompletedAllWords{CorrectGuesses: p.CorrectGuesses, TotalAttempts: p.TotalAttempts})
		}

	default:
		p.CurrentAttempts = used
	}

	s.broadcast(r, EventUpdateScores, UpdateScores{Players: r.Snapshot(), GameInProgress: r.InProgress})
	s.endIfAllCompleted(r)
}
