// apps/party-server/internal/ledger/ledger.go
//
// Match history: one row per finished multiplayer game plus the final
// counters of every player that was still in the room when it ended.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PlayerResult is a player's final standing in a finished game.
type PlayerResult struct {
	Username       string `json:"username"`
	CorrectGuesses int    `json:"correctGuesses"`
	TotalAttempts  int    `json:"totalAttempts"`
	WordsPlayed    int    `json:"wordsPlayed"`
}

// GameResult is a finished game.
type GameResult struct {
	ID        int64          `json:"id"`
	RoomCode  string         `json:"roomCode"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt"`
	WordCount int            `json:"wordCount"`
	Players   []PlayerResult `json:"players"`
}

// Ledger stores finished games in SQLite.
type Ledger struct {
	db *sql.DB
}

// Open opens the database at path and applies migrations.
func Open(path string) (*Ledger, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// Record inserts a finished game and its players in one transaction.
func (l *Ledger) Record(ctx context.Context, g GameResult) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO games (room_code, started_at, ended_at, word_count) VALUES (?,?,?,?)`,
		g.RoomCode, g.StartedAt.UTC().Format(time.RFC3339), g.EndedAt.UTC().Format(time.RFC3339), g.WordCount,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, p := range g.Players {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, position, username, correct_guesses, total_attempts, words_played)
			VALUES (?,?,?,?,?,?)`,
			id, i, p.Username, p.CorrectGuesses, p.TotalAttempts, p.WordsPlayed,
		); err != nil {
			return fmt.Errorf("insert player %s: %w", p.Username, err)
		}
	}
	return tx.Commit()
}

// Recent returns the latest finished games, newest first.
// Default limit is 20 if not specified; it is capped at 100.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, room_code, started_at, ended_at, word_count
		FROM games
		ORDER BY ended_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]GameResult, 0, limit)
	for rows.Next() {
		var g GameResult
		var started, ended string
		if err := rows.Scan(&g.ID, &g.RoomCode, &started, &ended, &g.WordCount); err != nil {
			rows.Close()
			return nil, err
		}
		g.StartedAt = mustParse(started)
		g.EndedAt = mustParse(ended)
		g.Players = []PlayerResult{}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		players, err := l.players(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Players = players
	}
	return out, nil
}

func (l *Ledger) players(ctx context.Context, gameID int64) ([]PlayerResult, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT username, correct_guesses, total_attempts, words_played
		FROM game_players WHERE game_id=? ORDER BY position ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlayerResult{}
	for rows.Next() {
		var p PlayerResult
		if err := rows.Scan(&p.Username, &p.CorrectGuesses, &p.TotalAttempts, &p.WordsPlayed); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
