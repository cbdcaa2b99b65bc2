package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tazhate/valenbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			subscribed INTEGER NOT NULL DEFAULT 1,
			morning_time TEXT NOT NULL DEFAULT '10:00',
			evening_time TEXT NOT NULL DEFAULT '22:00',
			last_interaction_date TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_subscribed ON users(subscribed)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSubscribe inserts a new subscriber or reactivates an existing one.
// Reminder times are reset to the given values either way; the interaction
// history is kept.
func (s *Storage) UpsertSubscribe(userID int64, morning, evening string) error {
	_, err := s.db.Exec(
		`INSERT INTO users (user_id, morning_time, evening_time, subscribed)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT(user_id) DO UPDATE SET
			morning_time = excluded.morning_time,
			evening_time = excluded.evening_time,
			subscribed = 1`,
		userID, morning, evening,
	)
	return err
}

// Unsubscribe soft-deletes a subscriber: the row is retained with the
// subscribed flag cleared. Unknown user ids are a no-op.
func (s *Storage) Unsubscribe(userID int64) error {
	_, err := s.db.Exec(`UPDATE users SET subscribed = 0 WHERE user_id = ?`, userID)
	return err
}

// RecordInteraction sets the last interaction date. Unknown user ids are a
// no-op.
func (s *Storage) RecordInteraction(userID int64, day time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_interaction_date = ? WHERE user_id = ?`,
		day.Format(domain.DateLayout), userID,
	)
	return err
}

// SetReminderTime updates a single slot, leaving the other untouched.
func (s *Storage) SetReminderTime(userID int64, slot domain.Slot, hhmm string) error {
	column := "morning_time"
	if slot == domain.SlotEvening {
		column = "evening_time"
	}
	query := fmt.Sprintf(`UPDATE users SET %s = ? WHERE user_id = ?`, column)
	_, err := s.db.Exec(query, hhmm, userID)
	return err
}

// Get returns a user's record, or nil when the user id is unknown.
func (s *Storage) Get(userID int64) (*domain.UserRecord, error) {
	u := &domain.UserRecord{}
	var subscribed int
	var last sql.NullString
	err := s.db.QueryRow(
		`SELECT user_id, subscribed, morning_time, evening_time, last_interaction_date, created_at
		 FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.UserID, &subscribed, &u.MorningTime, &u.EveningTime, &last, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Subscribed = subscribed != 0
	u.LastInteractionDate = last.String
	return u, nil
}

// ListActive returns a snapshot of all subscribed users.
func (s *Storage) ListActive() ([]*domain.UserRecord, error) {
	rows, err := s.db.Query(
		`SELECT user_id, subscribed, morning_time, evening_time, last_interaction_date, created_at
		 FROM users WHERE subscribed = 1 ORDER BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.UserRecord
	for rows.Next() {
		u := &domain.UserRecord{}
		var subscribed int
		var last sql.NullString
		if err := rows.Scan(&u.UserID, &subscribed, &u.MorningTime, &u.EveningTime, &last, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Subscribed = subscribed != 0
		u.LastInteractionDate = last.String
		users = append(users, u)
	}
	return users, rows.Err()
}
