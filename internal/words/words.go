// apps/party-server/internal/words/words.go
//
// Provides the built-in word lists used as the fallback for every word lookup.
//
// Responsibilities:
//   - Load answer and allowed guess lists from configured files or fall back to embedded defaults.
//   - Maintain sets for quick lookups (answers only, answers∪guesses).
//   - Supply utility functions like RandomAnswer, IsAllowed and Stats.
//
// Word Lists:
//   - "answers": candidate target words (exactly 5 lowercase letters).
//   - "allowed": valid guesses (always includes answers).
//
// Initialization behavior (Init):
//   1. If both paths are set, load answers from the first and allowed guesses from the second.
//   2. If only the answers path is set, answers come from it and guesses from the
//      embedded allowed list (plus the answers).
//   3. If only the allowed path is set, use that file for both answers and allowed guesses.
//   4. If neither is set, fall back to the embedded defaults.
//
// Constraints:
//   • Words must be 5 alphabetic letters (a–z).
//   • Lists are normalized to lowercase; callers receive uppercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"
)

//go:embed default_small_answers.txt
var embeddedAnswers string

//go:embed default_small_allowed.txt
var embeddedAllowed string

var (
	initOnce   sync.Once
	answers    []string            // canonical answers
	allowedSet map[string]struct{} // answers ∪ guesses
	initialErr error
)

// Init loads word lists exactly once.
// Returns an error if the answers list ends up empty.
func Init(answersPath, allowedPath string) error {
	initOnce.Do(func() {
		answers, allowedSet, initialErr = load(answersPath, allowedPath)
	})
	return initialErr
}

func load(answersPath, allowedPath string) ([]string, map[string]struct{}, error) {
	var (
		ansList, allowList []string
		err                error
	)

	switch {
	case answersPath != "" && allowedPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, nil, err
		}
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, nil, err
		}

	case answersPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, nil, err
		}
		allowList = normalizeLines(embeddedAllowed)

	case allowedPath != "":
		if allowList, err = readWordFile(allowedPath); err != nil {
			return nil, nil, err
		}
		ansList = allowList

	default:
		ansList = normalizeLines(embeddedAnswers)
		allowList = normalizeLines(embeddedAllowed)
	}

	set := toSet(append([]string{}, ansList...))
	for _, w := range allowList {
		set[w] = struct{}{}
	}
	if len(ansList) == 0 {
		return nil, nil, errors.New("words: answers list is empty")
	}
	return ansList, set, nil
}

// readWordFile loads one word per line from a file,
// lowercases, trims, and keeps only valid 5-letter alphabetic words.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w, ok := normalizeWord(sc.Text()); ok {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalizeLines turns an embedded multiline string into valid lowercase words.
func normalizeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if w, ok := normalizeWord(line); ok {
			out = append(out, w)
		}
	}
	return out
}

func normalizeWord(line string) (string, bool) {
	w := strings.TrimSpace(strings.ToLower(line))
	return w, len(w) == 5 && isAlpha(w)
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// RandomAnswer returns a uniformly random uppercase word from the answers list.
// Lists are loaded on first use if Init was never called.
func RandomAnswer() string {
	_ = Init("", "")
	if len(answers) == 0 {
		return "CRANE"
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(answers))))
	if err != nil {
		return strings.ToUpper(answers[0])
	}
	return strings.ToUpper(answers[nBig.Int64()])
}

// IsAllowed reports whether w is in the local allowed list (answers ∪ guesses).
func IsAllowed(w string) bool {
	_ = Init("", "")
	_, ok := allowedSet[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed).
func Stats() (answersCount int, allowedCount int) {
	return len(answers), len(allowedSet)
}
