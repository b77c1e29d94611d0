// Package storage persists session transcripts and summaries, and manages
// the on-disk working directory for intermediate audio clips.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"meeting-insight-service/internal/models"
)

// Store handles SQLite persistence of transcript lines and summaries.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcript_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		time TEXT NOT NULL,
		speaker TEXT NOT NULL,
		language TEXT,
		sentiment TEXT,
		aggression REAL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lines_session ON transcript_lines(session_id);
	CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &Store{db: db}, nil
}

// SaveLine saves one transcript line for a session.
func (s *Store) SaveLine(sessionID string, line models.TranscriptLine) error {
	query := `
	INSERT INTO transcript_lines (session_id, time, speaker, language, sentiment, aggression, text, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, sessionID, line.Time, line.Speaker, line.Language,
		line.Sentiment, line.Aggression, line.Text, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save transcript line: %v", err)
	}

	return nil
}

// SaveSummary saves a partial or final summary. kind is "partial" or "final";
// seq is the partial sequence number (0 for finals).
func (s *Store) SaveSummary(sessionID string, seq int, kind, content string) error {
	query := `
	INSERT INTO summaries (session_id, seq, kind, content, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, sessionID, seq, kind, content, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save summary: %v", err)
	}

	return nil
}

// ListLines returns the transcript lines of a session in insertion order.
func (s *Store) ListLines(sessionID string, limit int) ([]models.TranscriptLine, error) {
	query := `
	SELECT time, speaker, language, sentiment, aggression, text
	FROM transcript_lines WHERE session_id = ? ORDER BY id LIMIT ?
	`

	rows, err := s.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript lines: %v", err)
	}
	defer rows.Close()

	var lines []models.TranscriptLine
	for rows.Next() {
		var line models.TranscriptLine
		if err := rows.Scan(&line.Time, &line.Speaker, &line.Language,
			&line.Sentiment, &line.Aggression, &line.Text); err != nil {
			continue
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// StoredSummary is one persisted summary row.
type StoredSummary struct {
	Seq       int       `json:"seq"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSummaries returns the summaries of a session, oldest first.
func (s *Store) ListSummaries(sessionID string, limit int) ([]StoredSummary, error) {
	query := `
	SELECT seq, kind, content, created_at
	FROM summaries WHERE session_id = ? ORDER BY id LIMIT ?
	`

	rows, err := s.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %v", err)
	}
	defer rows.Close()

	var summaries []StoredSummary
	for rows.Next() {
		var sum StoredSummary
		if err := rows.Scan(&sum.Seq, &sum.Kind, &sum.Content, &sum.CreatedAt); err != nil {
			continue
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
