// Package db persists emitted classifications to sqlite so sessions can be
// reviewed after the fact. The pipeline itself never reads from it.
package db

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle used by the service.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{handle}
	if err := db.MigrateUp(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}

// Classification is one persisted classification event.
type Classification struct {
	ID            int64
	SessionID     string
	Source        string
	Label         string
	ProcessingSec float64
	Actuation     string
	CreatedAt     time.Time
}

func (c *Classification) String() string {
	return fmt.Sprintf("Session: %s, Label: %s, Processing: %fs, At: %s",
		c.SessionID, c.Label, c.ProcessingSec, c.CreatedAt.Format(time.RFC3339))
}

// RecordClassification persists one emitted classification.
func (db *DB) RecordClassification(sessionID, source, label string, processingSec float64, actuation string) error {
	_, err := db.Exec(
		`INSERT INTO classifications (session_id, source, label, processing_seconds, actuation) VALUES (?, ?, ?, ?, ?)`,
		sessionID, source, label, processingSec, actuation,
	)
	if err != nil {
		return fmt.Errorf("record classification: %w", err)
	}
	return nil
}

// RecentClassifications returns up to limit classification events, newest
// first.
func (db *DB) RecentClassifications(limit int) ([]Classification, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.Query(
		`SELECT id, session_id, source, label, processing_seconds, actuation, created_at
		 FROM classifications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Classification
	for rows.Next() {
		var c Classification
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Source, &c.Label, &c.ProcessingSec, &c.Actuation, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionSummary aggregates one session's classifications.
type SessionSummary struct {
	SessionID        string
	Classifications  int
	AvgProcessingSec float64
	FirstAt          string
	LastAt           string
}

// SummarizeSession returns the rollup for one session, or sql.ErrNoRows when
// it recorded nothing.
func (db *DB) SummarizeSession(sessionID string) (*SessionSummary, error) {
	row := db.QueryRow(
		`SELECT session_id, COUNT(*), AVG(processing_seconds), MIN(created_at), MAX(created_at)
		 FROM classifications WHERE session_id = ? GROUP BY session_id`, sessionID)

	var s SessionSummary
	if err := row.Scan(&s.SessionID, &s.Classifications, &s.AvgProcessingSec, &s.FirstAt, &s.LastAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// AttachAdminRoutes mounts a plain-text listing of recent classifications
// for local debugging.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/db/classifications", func(w http.ResponseWriter, r *http.Request) {
		events, err := db.RecentClassifications(200)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list classifications: %v", err), http.StatusInternalServerError)
			return
		}
		for _, e := range events {
			fmt.Fprintln(w, e.String())
		}
	})
}
