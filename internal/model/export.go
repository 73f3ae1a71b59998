package model

import "time"

// ProgressExport is the top-level JSON structure for the export command.
type ProgressExport struct {
	ExportedAt time.Time    `json:"exported_at"`
	NumUsers   int          `json:"num_users"`
	Users      []UserResult `json:"users"`
}

// UserResult holds one user's progress and session history for export.
type UserResult struct {
	Username    string           `json:"username"`
	DisplayName string           `json:"display_name"`
	Progress    UserProgress     `json:"progress"`
	Sessions    []SessionSummary `json:"sessions"`
}

// SessionSummary is a condensed view of one finished session.
type SessionSummary struct {
	ID                  int64       `json:"id"`
	Mode                SessionMode `json:"mode"`
	Score               int         `json:"score"`
	Questions           int         `json:"questions"`
	Correct             int         `json:"correct"`
	PerfectFormulations int         `json:"perfect_formulations"`
	Date                time.Time   `json:"date"`
}
