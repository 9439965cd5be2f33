// Package store provides SQLite database operations for morning-cli.
//
// It holds two relations: provisioned user accounts and the append-only
// feedback log. Feedback events are never updated or deleted.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robertmeta/morning-cli/model"
	_ "modernc.org/sqlite"
)

// ErrUnavailable wraps store-connectivity failures. A request that hits
// one must abort rather than treat missing history as "no preference".
var ErrUnavailable = errors.New("store unavailable")

// dateLayout is how event dates are persisted (calendar date, no time).
const dateLayout = "2006-01-02"

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrUnavailable, err)
	}

	// A second pooled connection to ":memory:" would get its own empty
	// database, so pin in-memory stores to a single connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %v", ErrUnavailable, err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates the database tables and indexes.
func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		user_id TEXT NOT NULL,
		menu_name TEXT NOT NULL,
		feedback TEXT NOT NULL,
		date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_user_type ON feedback(user_id, feedback);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordFeedback appends one feedback event with today's date.
// Calling twice records two events; there is no idempotency guarantee.
func (s *Store) RecordFeedback(userID, menuName string, ft model.FeedbackType) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	if menuName == "" {
		return errors.New("menu name is required")
	}
	if !ft.Valid() {
		return fmt.Errorf("invalid feedback type: %q", ft)
	}

	_, err := s.db.Exec(
		"INSERT INTO feedback (user_id, menu_name, feedback, date) VALUES (?, ?, ?, ?)",
		userID, menuName, string(ft), time.Now().Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to record feedback: %v", ErrUnavailable, err)
	}
	return nil
}

// DislikedItems returns the deduplicated set of menu names the user has
// ever marked dislike.
func (s *Store) DislikedItems(userID string) (map[string]bool, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT menu_name FROM feedback WHERE user_id = ? AND feedback = ?",
		userID, string(model.FeedbackDislike),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query dislikes: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	disliked := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan dislike: %v", ErrUnavailable, err)
		}
		disliked[name] = true
	}

	return disliked, rows.Err()
}

// LikeWeightByTag counts the user's like events per tag, joined against
// the given catalog snapshot. Likes on items no longer in the catalog do
// not contribute.
func (s *Store) LikeWeightByTag(userID string, items []model.MenuItem) (map[string]int, error) {
	tagByName := make(map[string]string, len(items))
	for _, item := range items {
		tagByName[item.Name] = item.Tag
	}

	rows, err := s.db.Query(
		"SELECT menu_name FROM feedback WHERE user_id = ? AND feedback = ?",
		userID, string(model.FeedbackLike),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query likes: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	weights := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan like: %v", ErrUnavailable, err)
		}
		if tag, ok := tagByName[name]; ok {
			weights[tag]++
		}
	}

	return weights, rows.Err()
}

// FeedbackHistory returns every feedback event the user has recorded,
// oldest first.
func (s *Store) FeedbackHistory(userID string) ([]model.FeedbackEvent, error) {
	rows, err := s.db.Query(
		"SELECT user_id, menu_name, feedback, date FROM feedback WHERE user_id = ? ORDER BY date, rowid",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query feedback history: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var events []model.FeedbackEvent
	for rows.Next() {
		var event model.FeedbackEvent
		var ft, date string

		if err := rows.Scan(&event.UserID, &event.MenuName, &ft, &date); err != nil {
			return nil, fmt.Errorf("%w: failed to scan feedback event: %v", ErrUnavailable, err)
		}

		event.Feedback = model.FeedbackType(ft)
		event.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in feedback log: %v", date, err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
