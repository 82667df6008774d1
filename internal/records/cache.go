package records

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/trainlog/internal/models"
	_ "modernc.org/sqlite"
)

// SnapshotCache persists the last hydrated session list per user so the
// client can render something before its first network round trip.
type SnapshotCache struct {
	db *sql.DB
}

// OpenSnapshotCache opens (or creates) the SQLite cache at dir/snapshots.db.
func OpenSnapshotCache(dir string) (*SnapshotCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "snapshots.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_snapshots (
		user_id  TEXT PRIMARY KEY,
		payload  TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}

	return &SnapshotCache{db: db}, nil
}

// Save stores the hydrated list for a user, replacing any prior snapshot.
func (c *SnapshotCache) Save(userID string, sessions []models.TrainingSession) error {
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO session_snapshots (user_id, payload, saved_at) VALUES (?, ?, ?)`,
		userID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot for a user. The second return is false
// when no snapshot exists.
func (c *SnapshotCache) Load(userID string) ([]models.TrainingSession, bool, error) {
	var payload string
	err := c.db.QueryRow(
		`SELECT payload FROM session_snapshots WHERE user_id = ?`, userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading snapshot: %w", err)
	}

	var sessions []models.TrainingSession
	if err := json.Unmarshal([]byte(payload), &sessions); err != nil {
		return nil, false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return sessions, true, nil
}

// Close closes the cache database.
func (c *SnapshotCache) Close() error {
	return c.db.Close()
}
