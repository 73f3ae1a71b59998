package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/civique/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		question TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '[]',
		correct_index INTEGER NOT NULL DEFAULT 0,
		answer TEXT NOT NULL DEFAULT '',
		key_points TEXT NOT NULL DEFAULT '[]',
		suggested_formulation TEXT NOT NULL DEFAULT '',
		rationale TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS user_progress (
		user_id INTEGER PRIMARY KEY,
		streak INTEGER NOT NULL DEFAULT 1,
		last_session_date TEXT NOT NULL DEFAULT '',
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		total_correct INTEGER NOT NULL DEFAULT 0,
		badges TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		mode TEXT NOT NULL,
		question_types TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		finished_at DATETIME,
		correct INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		percentage INTEGER NOT NULL DEFAULT 0,
		perfect_formulations INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS session_questions (
		session_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES study_sessions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		user_answer TEXT NOT NULL DEFAULT '',
		selected_index INTEGER NOT NULL DEFAULT -1,
		is_correct INTEGER NOT NULL DEFAULT 0,
		match_details TEXT,
		perfect_formulation INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES study_sessions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertQuestion stores a bank question.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, err
	}
	keyPoints, err := json.Marshal(q.KeyPoints)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (type, question, domain, options, correct_index, answer, key_points, suggested_formulation, rationale)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Type, q.Text, q.Domain, string(options), q.CorrectIndex, q.Answer, string(keyPoints), q.SuggestedFormulation, q.Rationale,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const questionColumns = `id, type, question, domain, options, correct_index, answer, key_points, suggested_formulation, rationale`

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var options, keyPoints string
	err := row.Scan(&q.ID, &q.Type, &q.Text, &q.Domain, &options, &q.CorrectIndex, &q.Answer, &keyPoints, &q.SuggestedFormulation, &q.Rationale)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("decode options for question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(keyPoints), &q.KeyPoints); err != nil {
		return q, fmt.Errorf("decode key points for question %d: %w", q.ID, err)
	}
	return q, nil
}

// ListQuestions returns the full question bank.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT ` + questionColumns + ` FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// QuestionCount returns the number of questions in the bank.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// UpdateQuestionEnrichment fills in the LLM-generated formulation and
// rationale for a question.
func (s *Store) UpdateQuestionEnrichment(id int64, suggestedFormulation, rationale string) error {
	_, err := s.db.Exec(
		`UPDATE questions SET suggested_formulation = ?, rationale = ? WHERE id = ?`,
		suggestedFormulation, rationale, id,
	)
	return err
}

// CreateStudySession persists a generated session and its question order.
func (s *Store) CreateStudySession(sess model.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	types, err := json.Marshal(sess.QuestionTypes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO study_sessions (id, user_id, mode, question_types, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Mode, string(types), sess.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i, q := range sess.Questions {
		_, err := tx.Exec(
			`INSERT INTO session_questions (session_id, question_id, position) VALUES (?, ?, ?)`,
			sess.ID, q.ID, i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetStudySession returns a session with its ordered questions.
func (s *Store) GetStudySession(id int64) (*model.Session, error) {
	var sess model.Session
	var types string
	err := s.db.QueryRow(
		`SELECT id, user_id, mode, question_types, created_at FROM study_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Mode, &types, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(types), &sess.QuestionTypes); err != nil {
		return nil, fmt.Errorf("decode question types for session %d: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT `+prefixedQuestionColumns("q")+`
		 FROM questions q
		 JOIN session_questions sq ON sq.question_id = q.id
		 WHERE sq.session_id = ?
		 ORDER BY sq.position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		sess.Questions = append(sess.Questions, q)
		if q.Type == model.TypeOral {
			sess.TestCount++
		} else {
			sess.PracticeCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

func prefixedQuestionColumns(alias string) string {
	return alias + `.id, ` + alias + `.type, ` + alias + `.question, ` + alias + `.domain, ` +
		alias + `.options, ` + alias + `.correct_index, ` + alias + `.answer, ` +
		alias + `.key_points, ` + alias + `.suggested_formulation, ` + alias + `.rationale`
}

// AddAnswer appends a graded answer to a session's history.
func (s *Store) AddAnswer(sessionID int64, rec model.AnswerRecord) error {
	var details any
	if rec.MatchDetails != nil {
		data, err := json.Marshal(rec.MatchDetails)
		if err != nil {
			return err
		}
		details = string(data)
	}
	_, err := s.db.Exec(
		`INSERT INTO answers (session_id, question_id, user_answer, selected_index, is_correct, match_details, perfect_formulation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.QuestionID, rec.UserAnswer, rec.SelectedIndex, rec.IsCorrect, details, rec.PerfectFormulation, rec.CreatedAt,
	)
	return err
}

// GetAnswers returns a session's answer history in insertion order.
func (s *Store) GetAnswers(sessionID int64) ([]model.AnswerRecord, error) {
	rows, err := s.db.Query(
		`SELECT question_id, user_answer, selected_index, is_correct, match_details, perfect_formulation, created_at
		 FROM answers WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.AnswerRecord
	for rows.Next() {
		var rec model.AnswerRecord
		var details sql.NullString
		if err := rows.Scan(&rec.QuestionID, &rec.UserAnswer, &rec.SelectedIndex, &rec.IsCorrect, &details, &rec.PerfectFormulation, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if details.Valid {
			var mr model.MatchResult
			if err := json.Unmarshal([]byte(details.String), &mr); err != nil {
				return nil, fmt.Errorf("decode match details: %w", err)
			}
			rec.MatchDetails = &mr
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FinishStudySession records the final statistics on a session.
func (s *Store) FinishStudySession(id int64, stats model.SessionStats) error {
	_, err := s.db.Exec(
		`UPDATE study_sessions SET finished_at = ?, correct = ?, total = ?, percentage = ?, perfect_formulations = ? WHERE id = ?`,
		time.Now(), stats.Correct, stats.Total, stats.Percentage, stats.PerfectFormulations, id,
	)
	return err
}

// ListSessionSummaries returns a user's finished sessions, newest first,
// capped at limit.
func (s *Store) ListSessionSummaries(userID int64, limit int) ([]model.SessionSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, mode, percentage, total, correct, perfect_formulations, created_at
		 FROM study_sessions
		 WHERE user_id = ? AND finished_at IS NOT NULL
		 ORDER BY created_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Mode, &sum.Score, &sum.Questions, &sum.Correct, &sum.PerfectFormulations, &sum.Date); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
