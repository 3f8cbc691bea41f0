package data

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// MatchRecord is one finished match as stored in Postgres.
type MatchRecord struct {
	ID       int64     `json:"id"`
	UserID   string    `json:"user_id"`
	Winner   string    `json:"winner"`
	Turns    int       `json:"turns"`
	PlayedAt time.Time `json:"played_at"`
}

// LeaderboardEntry is a player ranked by recorded wins.
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Tag      int    `json:"tag"`
	Wins     int    `json:"wins"`
}

// Store persists match history and player win counts in Postgres.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore accepts an existing DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for collaborators that issue their own
// queries, like the auth module.
func (s *Store) DB() *sql.DB { return s.db }

// NewStoreFromDB builds the store from a connection string (e.g.
// os.Getenv("DATABASE_URL")).
func NewStoreFromDB(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Init creates the tables the store needs if they are missing.
func (s *Store) Init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			nickname TEXT NOT NULL,
			tag INT NOT NULL,
			password_hash TEXT NOT NULL,
			wins INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (nickname, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			winner TEXT NOT NULL,
			turns INT NOT NULL,
			played_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// RecordMatch appends one finished match to the history.
func (s *Store) RecordMatch(userID, winner string, turns int) error {
	_, err := s.db.Exec(`
		INSERT INTO matches (user_id, winner, turns)
		VALUES ($1, $2, $3)
	`, userID, winner, turns)
	return err
}

// RecentMatches returns the player's latest results, newest first.
func (s *Store) RecentMatches(userID string, limit int) ([]MatchRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, winner, turns, played_at
		FROM matches
		WHERE user_id = $1
		ORDER BY played_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []MatchRecord
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.ID, &m.UserID, &m.Winner, &m.Turns, &m.PlayedAt); err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// RecordWin increments the player's win counter. Guests and unknown ids are
// rejected so the leaderboard only holds registered users.
func (s *Store) RecordWin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE users SET wins = wins + 1 WHERE id = $1
	`, userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.New("user not found")
	}
	return nil
}

// Wins returns the player's recorded win count.
func (s *Store) Wins(userID string) (int, error) {
	var wins int
	err := s.db.QueryRow(`SELECT wins FROM users WHERE id = $1`, userID).Scan(&wins)
	if err != nil {
		return 0, err
	}
	return wins, nil
}

// Leaderboard ranks players by win count.
func (s *Store) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(`
		SELECT nickname, tag, wins
		FROM users
		WHERE wins > 0
		ORDER BY wins DESC, nickname ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.Tag, &e.Wins); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
