package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/civique/internal/model"
)

// CreateUser inserts a new user together with its initial progression.
func (s *Store) CreateUser(u model.User, p model.UserProgress) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO users (username, display_name, password_hash, active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.PasswordHash, u.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	badges, err := json.Marshal(p.Badges)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(
		`INSERT INTO user_progress (user_id, streak, last_session_date, xp, level, total_sessions, total_questions, total_correct, badges, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Streak, p.LastSessionDate, p.XP, p.Level, p.TotalSessions, p.TotalQuestions, p.TotalCorrect, string(badges), p.CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username)
	return id, nil
}

// GetUserByUsername returns a user by username, or nil when absent.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, username, display_name, password_hash, active, created_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user by ID, or nil when absent.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, username, display_name, password_hash, active, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT id, username, display_name, password_hash, active, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// GetProgress returns a user's progression.
func (s *Store) GetProgress(userID int64) (model.UserProgress, error) {
	var p model.UserProgress
	var badges string
	err := s.db.QueryRow(
		`SELECT user_id, streak, last_session_date, xp, level, total_sessions, total_questions, total_correct, badges, created_at
		 FROM user_progress WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Streak, &p.LastSessionDate, &p.XP, &p.Level, &p.TotalSessions, &p.TotalQuestions, &p.TotalCorrect, &badges, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(badges), &p.Badges); err != nil {
		return p, fmt.Errorf("decode badges for user %d: %w", userID, err)
	}
	return p, nil
}

// SaveProgress persists a user's progression.
func (s *Store) SaveProgress(p model.UserProgress) error {
	badges, err := json.Marshal(p.Badges)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE user_progress SET streak = ?, last_session_date = ?, xp = ?, level = ?,
		 total_sessions = ?, total_questions = ?, total_correct = ?, badges = ?
		 WHERE user_id = ?`,
		p.Streak, p.LastSessionDate, p.XP, p.Level,
		p.TotalSessions, p.TotalQuestions, p.TotalCorrect, string(badges),
		p.UserID,
	)
	return err
}
