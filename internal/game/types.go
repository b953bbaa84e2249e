// apps/party-server/internal/game/types.go
//
// Core type definitions for Wordle scoring.
// Defines:
//   - Mark: per-letter result of a guess (hit/present/miss).
//   - Board dimensions shared by the room coordinator and the HTTP layer.

package game

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "hit":     letter is correct and in the correct position.
//   - "present": letter exists in the answer but in a different position.
//   - "miss":    letter does not exist in the (remaining) answer at all.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

const (
	// WordLength is the number of letters in every target word and guess.
	WordLength = 5
	// MaxAttempts is the number of guesses a player gets per word.
	MaxAttempts = 6
)
