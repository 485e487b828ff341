// Package store persists analysis results and raised alerts to SQLite so
// sessions can be reviewed after the fact. The pipeline treats the store
// as best-effort: a nil *Store disables persistence entirely.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// AlertRecord is one persisted alert.
type AlertRecord struct {
	ID        int64
	SessionID string
	Kind      string
	Severity  string
	Message   string
	CreatedAt time.Time
}

// AnalysisRecord is one persisted analysis result.
type AnalysisRecord struct {
	ID         int64
	SessionID  string
	Emotion    string
	Posture    string
	Attention  string
	Movement   string
	Engagement float64
	Stress     float64
	Confidence float64
	Advice     string
	CreatedAt  time.Time
}

// Store is a SQLite-backed event log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the event log at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for concurrent readers during the write path.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_session ON alerts(session_id, created_at);

	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		emotion TEXT NOT NULL,
		posture TEXT NOT NULL,
		attention TEXT NOT NULL,
		movement TEXT NOT NULL,
		engagement REAL NOT NULL,
		stress REAL NOT NULL,
		confidence REAL NOT NULL,
		advice TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LogAlert records one raised alert.
func (s *Store) LogAlert(ctx context.Context, rec AlertRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (session_id, kind, severity, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Kind, rec.Severity, rec.Message, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// LogAnalysis records one analysis result.
func (s *Store) LogAnalysis(ctx context.Context, rec AnalysisRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (session_id, emotion, posture, attention, movement,
			engagement, stress, confidence, advice, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Emotion, rec.Posture, rec.Attention, rec.Movement,
		rec.Engagement, rec.Stress, rec.Confidence, rec.Advice, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecentAlerts returns the newest alerts for a session, newest first.
func (s *Store) RecentAlerts(ctx context.Context, sessionID string, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, severity, message, created_at
		FROM alerts WHERE session_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Kind, &rec.Severity, &rec.Message, &created); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		rec.CreatedAt = time.Unix(created, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// RecentAnalyses returns the newest analyses for a session, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, sessionID string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, emotion, posture, attention, movement,
			engagement, stress, confidence, advice, created_at
		FROM analyses WHERE session_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Emotion, &rec.Posture, &rec.Attention,
			&rec.Movement, &rec.Engagement, &rec.Stress, &rec.Confidence, &rec.Advice, &created); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		rec.CreatedAt = time.Unix(created, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

// PurgeSession deletes all persisted rows for a session. Returns how many
// rows were removed.
func (s *Store) PurgeSession(ctx context.Context, sessionID string) (int64, error) {
	var total int64
	for _, table := range []string{"alerts", "analyses"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, sessionID)
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("%s rows affected: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
