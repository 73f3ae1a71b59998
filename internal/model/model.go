package model

import (
	"context"
	"time"
)

// QuestionType represents the kind of question being asked.
type QuestionType string

const (
	// TypeMCQ is a multiple-choice question.
	TypeMCQ QuestionType = "mcq"
	// TypeShort is a short free-text question.
	TypeShort QuestionType = "short"
	// TypeOral is an oral question answered via speech-derived text.
	TypeOral QuestionType = "oral"
)

// AllQuestionTypes is the default type filter when none is given.
var AllQuestionTypes = []QuestionType{TypeMCQ, TypeShort, TypeOral}

// SessionMode represents how a session is run.
type SessionMode string

const (
	ModeLearning SessionMode = "learning"
	ModeQuizMCQ  SessionMode = "quiz-mcq"
	ModeQuizOral SessionMode = "quiz-oral"
)

// IsQuiz reports whether the mode counts toward XP and quiz totals.
func (m SessionMode) IsQuiz() bool {
	return m == ModeQuizMCQ || m == ModeQuizOral
}

// PassingScore is the minimum match score for a free-text answer
// to count as correct.
const PassingScore = 60

// Question represents one item from the question bank.
// Questions are immutable once loaded.
type Question struct {
	ID                   int64        `json:"id"`
	Type                 QuestionType `json:"type"`
	Text                 string       `json:"question"`
	Domain               string       `json:"domain"`
	Options              []string     `json:"options,omitempty"`
	CorrectIndex         int          `json:"correct_index"`
	Answer               string       `json:"answer"`
	KeyPoints            []string     `json:"key_points,omitempty"`
	SuggestedFormulation string       `json:"suggested_formulation,omitempty"`
	Rationale            string       `json:"rationale,omitempty"`
}

// MatchResult is the outcome of scoring a single free-text answer.
// It is produced fresh per grading call and never mutated afterward.
type MatchResult struct {
	Score                    int      `json:"score"`
	ExactMatch               bool     `json:"exact_match"`
	MatchedKeywords          int      `json:"matched_keywords"`
	TotalKeywords            int      `json:"total_keywords"`
	Reasoning                string   `json:"reasoning"`
	IsQuantityQuestion       bool     `json:"is_quantity_question"`
	MatchedItems             []string `json:"matched_items,omitempty"`
	AccentIssues             bool     `json:"accent_issues"`
	KeywordsWithAccentIssues []string `json:"keywords_with_accent_issues,omitempty"`
}

// AnswerRecord is one graded answer in a session history.
// Records are append-only for the duration of a session.
type AnswerRecord struct {
	QuestionID         int64        `json:"question_id"`
	UserAnswer         string       `json:"user_answer"`
	SelectedIndex      int          `json:"selected_index"`
	IsCorrect          bool         `json:"is_correct"`
	MatchDetails       *MatchResult `json:"match_details,omitempty"`
	PerfectFormulation bool         `json:"perfect_formulation"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Session is an ordered set of questions served to one user.
type Session struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	Mode          SessionMode    `json:"mode"`
	Questions     []Question     `json:"questions"`
	QuestionTypes []QuestionType `json:"question_types"`
	PracticeCount int            `json:"practice_count"`
	TestCount     int            `json:"test_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SessionStats aggregates a session's answer history.
type SessionStats struct {
	Correct             int            `json:"correct"`
	Total               int            `json:"total"`
	Percentage          int            `json:"percentage"`
	PerfectFormulations int            `json:"perfect_formulations"`
	Answers             []AnswerRecord `json:"answers"`
}

// UserProgress tracks a learner's long-term progression.
type UserProgress struct {
	UserID          int64     `json:"-"`
	Streak          int       `json:"streak"`
	LastSessionDate string    `json:"last_session_date,omitempty"`
	XP              int       `json:"xp"`
	Level           int       `json:"level"`
	TotalSessions   int       `json:"total_sessions"`
	TotalQuestions  int       `json:"total_questions"`
	TotalCorrect    int       `json:"total_correct"`
	Badges          []string  `json:"badges"`
	CreatedAt       time.Time `json:"created_at"`
}

// User represents a learner account.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	NumQuestions  int  // questions per generated session
	SecureCookies bool // Set Secure flag on cookies (disable for local dev)
}

// QuestionImport is used for loading questions from JSON bank files.
type QuestionImport struct {
	Type                 QuestionType `json:"type"`
	Question             string       `json:"question"`
	Domain               string       `json:"domain"`
	Options              []string     `json:"options"`
	CorrectIndex         int          `json:"correct_index"`
	Answer               string       `json:"answer"`
	KeyPoints            []string     `json:"key_points"`
	SuggestedFormulation string       `json:"suggested_formulation"`
	Rationale            string       `json:"rationale"`
}
