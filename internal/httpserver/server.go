// apps/party-server/internal/httpserver/server.go
//
// HTTP server wiring for the party server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     per-IP rate limiting on /api).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Word endpoints for the single-player client: /api/word, /api/validate-word.
//   - Room bootstrap: POST /api/create-room, GET /api/join-room.
//   - Match history: GET /api/results (only when a ledger is configured).
//   - Real-time channel: /ws is handed to the gateway untouched.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled for the configured client.
//   - /ws sits outside the timeout and JSON middleware; those would break the
//     upgrade.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/game"
	"github.com/robalobadob/wordle/apps/party-server/internal/ledger"
	"github.com/robalobadob/wordle/apps/party-server/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/party-server/internal/room"
	"github.com/robalobadob/wordle/apps/party-server/internal/words"
)

// Rooms is the slice of the room service the HTTP API needs.
type Rooms interface {
	CreateRoom(ctx context.Context) (string, error)
	RoomExists(ctx context.Context, code string) (bool, error)
}

// Words supplies and checks words.
type Words interface {
	NextWord(ctx context.Context) string
	IsValid(ctx context.Context, word string) (bool, error)
}

// Results lists finished games.
type Results interface {
	Recent(ctx context.Context, limit int) ([]ledger.GameResult, error)
}

type Options struct {
	ClientOrigin   string
	RequestTimeout time.Duration
	Limiter        *ratelimit.Limiter // nil disables /api rate limiting
	Results        Results            // nil disables /api/results
	WS             http.Handler       // mounted at /ws when set
}

// Server bundles the router and its collaborators.
type Server struct {
	r       *chi.Mux
	rooms   Rooms
	words   Words
	results Results
}

// New constructs a Server, installs middleware, and registers routes.
func New(rooms Rooms, wordSrc Words, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), rooms: rooms, words: wordSrc, results: opts.Results}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	if opts.WS != nil {
		s.r.Handle("/ws", opts.WS)
	}

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
		r.Use(jsonContentType)                    // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"wordle-party","endpoints":["/health","/api/*","/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		// Debug: word list counts
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			a, g := words.Stats()
			writeJSON(w, http.StatusOK, map[string]int{"answers": a, "allowed": g})
		})

		r.Route("/api", func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(opts.Limiter.Middleware)
			}
			r.Get("/word", s.handleWord)
			r.Get("/validate-word", s.handleValidateWord)
			r.Post("/create-room", s.handleCreateRoom)
			r.Get("/join-room", s.handleJoinRoom)
			r.Get("/results", s.handleResults)
		})

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Router exposes the internal router (used by main and tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- words -------------------------------------

type wordRes struct {
	Word string `json:"word"`
}

type validateRes struct {
	IsValid bool `json:"isValid"`
}

// handleWord returns a random 5-letter word. It never fails: the source falls
// back to the built-in list.
func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wordRes{Word: s.words.NextWord(r.Context())})
}

func (s *Server) handleValidateWord(w http.ResponseWriter, r *http.Request) {
	word := game.Normalize(r.URL.Query().Get("word"))
	if !game.IsWord(word) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Word must be exactly 5 letters."})
		return
	}
	ok, err := s.words.IsValid(r.Context(), word)
	if err != nil {
		log.Warn().Err(err).Str("word", word).Msg("validate word")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "validation_failed"})
		return
	}
	writeJSON(w, http.StatusOK, validateRes{IsValid: ok})
}

// ------------------------------- rooms -------------------------------------

type createRoomRes struct {
	RoomCode string `json:"roomCode"`
}

type joinRoomRes struct {
	Success bool `json:"success"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	code, err := s.rooms.CreateRoom(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, room.ErrCodeSpaceExhausted) {
			status = http.StatusServiceUnavailable
		}
		log.Error().Err(err).Msg("create room")
		writeJSON(w, status, map[string]string{"error": "create_failed"})
		return
	}
	writeJSON(w, http.StatusOK, createRoomRes{RoomCode: code})
}

// handleJoinRoom only checks existence; the join itself happens on /ws.
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("roomCode")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, joinRoomRes{Success: false})
		return
	}
	ok, err := s.rooms.RoomExists(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("room exists")
		writeJSON(w, http.StatusInternalServerError, joinRoomRes{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, joinRoomRes{Success: ok})
}

// ------------------------------ history ------------------------------------

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history_disabled"})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_limit"})
			return
		}
		limit = n
	}
	games, err := s.results.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("recent results")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db_error"})
		return
	}
	if games == nil {
		games = []ledger.GameResult{}
	}
	writeJSON(w, http.StatusOK, games)
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
