// Package journal keeps an append-only record of confirmed station toggles
// in SQLite. It is an audit trail, not a state store: nothing is read back
// at startup and a write failure never blocks a toggle.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS toggles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at TEXT NOT NULL,
	display_index INTEGER NOT NULL,
	name TEXT NOT NULL,
	action TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL
);
`

type Journal struct {
	db *sql.DB
}

type Entry struct {
	At              time.Time `json:"at"`
	DisplayIndex    int       `json:"display_index"`
	Name            string    `json:"name"`
	Action          string    `json:"action"`
	DurationSeconds int       `json:"duration_seconds"`
}

func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// RecordToggle appends one confirmed action. Best-effort: failures are
// logged and dropped.
func (j *Journal) RecordToggle(displayIndex int, name, action string, duration time.Duration) {
	_, err := j.db.Exec(
		`INSERT INTO toggles (at, display_index, name, action, duration_seconds) VALUES (?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), displayIndex, name, action, int(duration/time.Second),
	)
	if err != nil {
		log.Warn().Err(err).Int("station", displayIndex).Msg("Failed to journal toggle")
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT at, display_index, name, action, duration_seconds FROM toggles ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&at, &e.DisplayIndex, &e.Name, &e.Action, &e.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
