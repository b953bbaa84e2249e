// apps/party-server/internal/game/engine.go
//
// Wordle scoring shared by every game mode.
// Responsibilities:
//   - Validate the shape of a word (length, alphabetic).
//   - Score guesses using the classic two-pass Wordle algorithm.
//
// Notes:
//   - Inputs are case-insensitive; words are compared in uppercase.
//   - Mark is an enum defined in this package (MarkHit/MarkPresent/MarkMiss).
package game

import "strings"

// Normalize trims and uppercases a word so that comparisons are case-insensitive.
func Normalize(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// IsWord reports whether s is exactly WordLength ASCII letters (any case).
func IsWord(s string) bool {
	if len(s) != WordLength {
		return false
	}
	return isAlpha(strings.ToUpper(s))
}

// Score implements the standard Wordle two‑pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non‑hit) answer letters by letter index.
//
// Pass 2:
//   - For each non‑hit guess letter: if there is remaining count for that letter,
//     mark Present and decrement the count; otherwise mark Miss.
//
// This ensures correct behavior with repeated letters in both answer and guess.
// Returns nil if the two words differ in length or contain non-letters.
func Score(answer, guess string) []Mark {
	answer, guess = Normalize(answer), Normalize(guess)
	n := len(guess)
	if n != len(answer) || !isAlpha(answer) || !isAlpha(guess) {
		return nil
	}
	res := make([]Mark, n)

	// Letter frequency for the non‑hit positions (A–Z).
	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			res[i] = MarkHit
		} else {
			counts[idx(answer[i])]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		j := idx(guess[i])
		if counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

// Solved returns true if all marks are MarkHit.
func Solved(m []Mark) bool {
	if len(m) == 0 {
		return false
	}
	for _, x := range m {
		if x != MarkHit {
			return false
		}
	}
	return true
}

// idx maps an uppercase ASCII letter to 0..25.
// Assumes inputs are validated to A–Z elsewhere.
func idx(b byte) int { return int(b - 'A') }

// isAlpha checks that a string consists only of uppercase A–Z.
func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
