// apps/party-server/internal/room/registry.go
//
// Registry maps live room codes to rooms. It is owned by a Service and, like
// the rooms it holds, only used from the Service event loop.

package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"
)

const (
	codeMin   = 100000
	codeSpace = 900000 // 100000..999999
	// codeAttempts bounds rejection sampling before giving up.
	codeAttempts = 1000
)

var (
	// ErrCodeSpaceExhausted is returned when no free room code could be found.
	ErrCodeSpaceExhausted = errors.New("room: no free room code")
)

// CodeGenerator returns a candidate 6-digit room code.
type CodeGenerator func() string

// RandomCode draws a uniformly random 6-digit numeric code.
func RandomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return fmt.Sprintf("%06d", codeMin+time.Now().UnixNano()%codeSpace)
	}
	return fmt.Sprintf("%06d", codeMin+n.Int64())
}

// Registry is the in-memory table of live rooms.
type Registry struct {
	rooms      map[string]*Room
	gen        CodeGenerator
	maxPlayers int
}

// NewRegistry returns an empty registry creating rooms of maxPlayers capacity.
func NewRegistry(maxPlayers int, gen CodeGenerator) *Registry {
	if gen == nil {
		gen = RandomCode
	}
	return &Registry{rooms: make(map[string]*Room), gen: gen, maxPlayers: maxPlayers}
}

// Create inserts a new waiting room under a code no live room uses.
func (r *Registry) Create(now time.Time) (*Room, error) {
	if len(r.rooms) >= codeSpace {
		return nil, ErrCodeSpaceExhausted
	}
	for range codeAttempts {
		code := r.gen()
		if !validCode(code) {
			continue
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}
		rm := newRoom(code, r.maxPlayers, now)
		r.rooms[code] = rm
		return rm, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Get looks up a live room.
func (r *Registry) Get(code string) (*Room, bool) {
	rm, ok := r.rooms[code]
	return rm, ok
}

// Remove deletes a room and returns it. Removing a missing code is a no-op.
func (r *Registry) Remove(code string) (*Room, bool) {
	rm, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	return rm, ok
}

// Len returns the number of live rooms.
func (r *Registry) Len() int { return len(r.rooms) }

// Codes returns the live codes in ascending order.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func validCode(code string) bool {
	if len(code) != 6 || code[0] == '0' {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
