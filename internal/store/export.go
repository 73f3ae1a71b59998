package store

import (
	"fmt"

	"github.com/pavelanni/civique/internal/model"
)

// historyLimit caps the session history kept per user.
const historyLimit = 50

// ExportAllUsers builds export-ready results for every user: progression
// plus recent session summaries.
func (s *Store) ExportAllUsers() ([]model.UserResult, error) {
	users, err := s.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var results []model.UserResult
	for _, u := range users {
		p, err := s.GetProgress(u.ID)
		if err != nil {
			return nil, fmt.Errorf("get progress for user %d: %w", u.ID, err)
		}
		sessions, err := s.ListSessionSummaries(u.ID, historyLimit)
		if err != nil {
			return nil, fmt.Errorf("list sessions for user %d: %w", u.ID, err)
		}
		results = append(results, model.UserResult{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Progress:    p,
			Sessions:    sessions,
		})
	}
	return results, nil
}
