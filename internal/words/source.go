// apps/party-server/internal/words/source.go
//
// Source is the word supplier used by the HTTP API and by rooms at game start.
// It prefers an external dictionary and silently falls back to the built-in
// list whenever the dictionary is missing, slow, or returns something unusable.

package words

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Dictionary is the external lookup service consulted before the fallback list.
type Dictionary interface {
	// RandomWord returns a pseudo-random word. Any error triggers the fallback.
	RandomWord(ctx context.Context) (string, error)

	// Exists reports whether word is a real word. A not-found answer is
	// (false, nil); transport or upstream failures are returned as errors.
	Exists(ctx context.Context, word string) (bool, error)
}

// Source combines an optional Dictionary with the built-in list.
type Source struct {
	dict     Dictionary
	fallback func() string
	parallel int
}

// NewSource returns a Source backed by dict. dict may be nil, in which case
// every word comes from the built-in list.
func NewSource(dict Dictionary) *Source {
	return &Source{dict: dict, fallback: RandomAnswer, parallel: 6}
}

// NextWord returns an uppercase 5-letter word. It never fails.
func (s *Source) NextWord(ctx context.Context) string {
	if s.dict == nil {
		return s.fallback()
	}
	w, err := s.dict.RandomWord(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("dictionary random word failed, using fallback")
		return s.fallback()
	}
	w = strings.ToUpper(strings.TrimSpace(w))
	if len(w) != 5 || !isAlpha(strings.ToLower(w)) {
		log.Debug().Str("word", w).Msg("dictionary returned unusable word, using fallback")
		return s.fallback()
	}
	return w
}

// Sequence returns n words, each fetched with NextWord. Lookups run with bounded
// concurrency; a cancelled ctx makes the remaining lookups fall back immediately.
func (s *Source) Sequence(ctx context.Context, n int) []string {
	out := make([]string, n)
	if n <= 0 {
		return out
	}
	workers := s.parallel
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i := range n {
		p.Go(func() {
			if ctx.Err() != nil {
				out[i] = s.fallback()
				return
			}
			out[i] = s.NextWord(ctx)
		})
	}
	p.Wait()
	return out
}

// IsValid reports whether word is a real word. Without a dictionary the
// built-in allowed list is consulted and no error is possible.
func (s *Source) IsValid(ctx context.Context, word string) (bool, error) {
	if s.dict == nil {
		return IsAllowed(word), nil
	}
	return s.dict.Exists(ctx, strings.ToLower(strings.TrimSpace(word)))
}
