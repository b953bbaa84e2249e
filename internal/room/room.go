// apps/party-server/internal/room/room.go
//
// Room and Player entities.
// A Room is only ever touched from the Service event loop, so none of the
// methods here lock. Players are kept in join order: the first entry is the
// room's admin (the first-ever joiner, or the earliest remaining member once
// that player has left).

package room

import (
	"time"
)

// Player is one connection's membership in a room.
type Player struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	IsAdmin          bool   `json:"isAdmin"`
	IsReady          bool   `json:"isReady"`
	CurrentWordIndex int    `json:"currentWordIndex"`
	CurrentAttempts  int    `json:"currentAttempts"`
	TotalAttempts    int    `json:"totalAttempts"`
	CorrectGuesses   int    `json:"correctGuesses"`
}

// Room is an isolated multiplayer session keyed by a 6-digit code.
type Room struct {
	Code       string
	MaxPlayers int
	CreatedAt  time.Time

	Words      []string // fixed for the duration of a game
	Active     bool     // false until the first player joins
	InProgress bool
	GameStart  time.Time
	GameExpiry time.Time

	players map[string]*Player
	order   []string

	expiresAt time.Time
	expiry    *timerHandle // exactly one live expiry timer
	ticker    *timerHandle // game clock, only while InProgress
	starting  bool         // word sequence being fetched
}

func newRoom(code string, maxPlayers int, now time.Time) *Room {
	return &Room{
		Code:       code,
		MaxPlayers: maxPlayers,
		CreatedAt:  now,
		players:    make(map[string]*Player),
	}
}

// Len returns the number of members.
func (r *Room) Len() int { return len(r.order) }

// Full reports whether the room is at capacity.
func (r *Room) Full() bool { return len(r.order) >= r.MaxPlayers }

// Player returns the member bound to connection id.
func (r *Room) Player(id string) *Player { return r.players[id] }

// Members returns players in join order.
func (r *Room) Members() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Snapshot returns copies of the players in join order, safe to hand to the
// transport after the handler returns.
func (r *Room) Snapshot() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.players[id])
	}
	return out
}

// UsernameTaken reports an exact (case-sensitive) username collision.
func (r *Room) UsernameTaken(username string) bool {
	for _, p := range r.players {
		if p.Username == username {
			return true
		}
	}
	return false
}

// Admin returns the current admin, or nil when the room is empty.
func (r *Room) Admin() *Player {
	if len(r.order) == 0 {
		return nil
	}
	return r.players[r.order[0]]
}

// IsCreator reports whether id is the first key in join order.
func (r *Room) IsCreator(id string) bool {
	return len(r.order) > 0 && r.order[0] == id
}

func (r *Room) add(id, username string) *Player {
	p := &Player{ID: id, Username: username, IsAdmin: len(r.order) == 0}
	r.players[id] = p
	r.order = append(r.order, id)
	return p
}

// remove deletes the member and promotes the next one in join order if the
// admin left, so that a non-empty room always has exactly one admin.
func (r *Room) remove(id string) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	for i, x := range r.order {
		if x == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if p.IsAdmin && len(r.order) > 0 {
		next := r.players[r.order[0]]
		next.IsAdmin = true
		next.IsReady = false
	}
	return p
}

// AllNonAdminsReady is true when there is at least one non-admin member and
// every non-admin member is ready.
func (r *Room) AllNonAdminsReady() bool {
	n := 0
	for _, p := range r.players {
		if p.IsAdmin {
			continue
		}
		if !p.IsReady {
			return false
		}
		n++
	}
	return n > 0
}

func (r *Room) resetForGame(words []string) {
	r.Words = words
	for _, p := range r.players {
		p.IsReady = false
		p.CurrentWordIndex = 0
		p.CorrectGuesses = 0
		p.TotalAttempts = 0
		p.CurrentAttempts = 0
	}
}

// Completed reports whether p has worked through every word.
func (r *Room) Completed(p *Player) bool {
	return p.CurrentWordIndex >= len(r.Words)
}

// AllCompleted reports whether every member has worked through every word.
func (r *Room) AllCompleted() bool {
	if len(r.order) == 0 {
		return false
	}
	for _, p := range r.players {
		if !r.Completed(p) {
			return false
		}
	}
	return true
}

// CurrentWord returns the word p is working on, or "" once completed.
func (r *Room) CurrentWord(p *Player) string {
	if p == nil || r.Completed(p) {
		return ""
	}
	return r.Words[p.CurrentWordIndex]
}

// RemainingSeconds is the time left in the running game, rounded up.
func (r *Room) RemainingSeconds(now time.Time) int {
	if !r.InProgress {
		return 0
	}
	left := r.GameExpiry.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
