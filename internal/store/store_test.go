package store

import (
	"testing"
	"time"

	"github.com/pavelanni/civique/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestQuestion(t *testing.T, s *Store, typ model.QuestionType, text string) int64 {
	t.Helper()
	id, err := s.InsertQuestion(model.Question{
		Type:      typ,
		Text:      text,
		Domain:    "institutions",
		Options:   []string{"a", "b", "c"},
		Answer:    "answer for " + text,
		KeyPoints: []string{"point un", "point deux"},
	})
	if err != nil {
		t.Fatalf("insertTestQuestion: %v", err)
	}
	return id
}

func createTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(
		model.User{Username: username, DisplayName: username, PasswordHash: "x", Active: true},
		model.UserProgress{Streak: 1, Level: 1, Badges: []string{"Débutant"}, CreatedAt: time.Now()},
	)
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func TestQuestionCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}

	id := insertTestQuestion(t, s, model.TypeShort, "Quelle est la devise ?")
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Text != "Quelle est la devise ?" {
		t.Errorf("expected question text, got %q", q.Text)
	}
	if q.Type != model.TypeShort {
		t.Errorf("expected type short, got %q", q.Type)
	}
	if len(q.Options) != 3 {
		t.Errorf("expected 3 options, got %v", q.Options)
	}
	if len(q.KeyPoints) != 2 {
		t.Errorf("expected 2 key points, got %v", q.KeyPoints)
	}

	insertTestQuestion(t, s, model.TypeMCQ, "Q2")
	list, err := s.ListQuestions()
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(list))
	}
}

func TestUpdateQuestionEnrichment(t *testing.T) {
	s := newTestStore(t)
	id := insertTestQuestion(t, s, model.TypeOral, "Q1")

	if err := s.UpdateQuestionEnrichment(id, "La formulation idéale.", "Parce que."); err != nil {
		t.Fatalf("UpdateQuestionEnrichment: %v", err)
	}
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.SuggestedFormulation != "La formulation idéale." {
		t.Errorf("unexpected formulation %q", q.SuggestedFormulation)
	}
	if q.Rationale != "Parce que." {
		t.Errorf("unexpected rationale %q", q.Rationale)
	}
}

func TestUserAndProgress(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := createTestUser(t, s, "marie")

	u, err := s.GetUserByUsername("marie")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user marie with id %d, got %+v", id, u)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}

	p, err := s.GetProgress(id)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Streak != 1 || p.Level != 1 {
		t.Errorf("unexpected initial progress %+v", p)
	}
	if len(p.Badges) != 1 || p.Badges[0] != "Débutant" {
		t.Errorf("expected Débutant badge, got %v", p.Badges)
	}

	p.XP = 120
	p.Streak = 3
	p.Badges = append(p.Badges, "Assidu")
	p.LastSessionDate = "2026-03-10"
	if err := s.SaveProgress(p); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	p2, err := s.GetProgress(id)
	if err != nil {
		t.Fatalf("GetProgress after save: %v", err)
	}
	if p2.XP != 120 || p2.Streak != 3 || len(p2.Badges) != 2 {
		t.Errorf("progress not persisted: %+v", p2)
	}
}

func TestDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "marie")

	_, err := s.CreateUser(
		model.User{Username: "marie", PasswordHash: "y", Active: true},
		model.UserProgress{Streak: 1, Level: 1, CreatedAt: time.Now()},
	)
	if err == nil {
		t.Error("expected unique constraint violation")
	}
}

func TestStudySessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "marie")
	q1 := insertTestQuestion(t, s, model.TypeShort, "Q1")
	q2 := insertTestQuestion(t, s, model.TypeOral, "Q2")

	sess := model.Session{
		ID:     time.Now().UnixMilli(),
		UserID: userID,
		Mode:   model.ModeQuizOral,
		Questions: []model.Question{
			{ID: q2, Type: model.TypeOral},
			{ID: q1, Type: model.TypeShort},
		},
		QuestionTypes: model.AllQuestionTypes,
		CreatedAt:     time.Now(),
	}
	if err := s.CreateStudySession(sess); err != nil {
		t.Fatalf("CreateStudySession: %v", err)
	}

	got, err := s.GetStudySession(sess.ID)
	if err != nil {
		t.Fatalf("GetStudySession: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.UserID != userID || got.Mode != model.ModeQuizOral {
		t.Errorf("unexpected session %+v", got)
	}
	// Question order must follow the stored positions, not bank order.
	if len(got.Questions) != 2 || got.Questions[0].ID != q2 || got.Questions[1].ID != q1 {
		t.Errorf("unexpected question order %+v", got.Questions)
	}
	if got.TestCount != 1 || got.PracticeCount != 1 {
		t.Errorf("counts = %d test / %d practice, want 1/1", got.TestCount, got.PracticeCount)
	}

	missing, err := s.GetStudySession(999)
	if err != nil {
		t.Fatalf("GetStudySession missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing session")
	}
}

func TestAnswersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "marie")
	qID := insertTestQuestion(t, s, model.TypeShort, "Q1")

	sess := model.Session{ID: 1, UserID: userID, Mode: model.ModeLearning, CreatedAt: time.Now()}
	if err := s.CreateStudySession(sess); err != nil {
		t.Fatalf("CreateStudySession: %v", err)
	}

	records := []model.AnswerRecord{
		{
			QuestionID: qID,
			UserAnswer: "la republique",
			IsCorrect:  true,
			MatchDetails: &model.MatchResult{
				Score: 85, AccentIssues: true,
				Reasoning: "Réponse correcte mais accents manquants (-15%)",
			},
			PerfectFormulation: true,
			CreatedAt:          time.Now(),
			SelectedIndex:      -1,
		},
		{QuestionID: qID, SelectedIndex: 2, IsCorrect: false, CreatedAt: time.Now()},
	}
	for _, rec := range records {
		if err := s.AddAnswer(sess.ID, rec); err != nil {
			t.Fatalf("AddAnswer: %v", err)
		}
	}

	got, err := s.GetAnswers(sess.ID)
	if err != nil {
		t.Fatalf("GetAnswers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(got))
	}
	if got[0].MatchDetails == nil || got[0].MatchDetails.Score != 85 {
		t.Errorf("match details not round-tripped: %+v", got[0].MatchDetails)
	}
	if !got[0].MatchDetails.AccentIssues {
		t.Error("accent issues flag lost")
	}
	if got[1].MatchDetails != nil {
		t.Error("mcq answer should have nil match details")
	}
	if got[1].SelectedIndex != 2 {
		t.Errorf("SelectedIndex = %d, want 2", got[1].SelectedIndex)
	}
}

func TestFinishAndSummaries(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "marie")

	for i, mode := range []model.SessionMode{model.ModeQuizMCQ, model.ModeQuizOral} {
		sess := model.Session{
			ID:        int64(i + 1),
			UserID:    userID,
			Mode:      mode,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateStudySession(sess); err != nil {
			t.Fatalf("CreateStudySession: %v", err)
		}
		stats := model.SessionStats{Correct: 7 + i, Total: 10, Percentage: 70 + i*10, PerfectFormulations: i}
		if err := s.FinishStudySession(sess.ID, stats); err != nil {
			t.Fatalf("FinishStudySession: %v", err)
		}
	}

	// An unfinished session must not appear in summaries.
	if err := s.CreateStudySession(model.Session{ID: 3, UserID: userID, Mode: model.ModeLearning, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateStudySession: %v", err)
	}

	summaries, err := s.ListSessionSummaries(userID, 50)
	if err != nil {
		t.Fatalf("ListSessionSummaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	// Newest first.
	if summaries[0].ID != 2 {
		t.Errorf("expected newest session first, got %d", summaries[0].ID)
	}
	if summaries[0].Score != 80 || summaries[0].Correct != 8 {
		t.Errorf("unexpected summary %+v", summaries[0])
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "marie")

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("unexpected auth session %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/bank/fr.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/bank/fr.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/bank/fr.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	if err := s.SetImportedFileHash("/bank/fr.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/bank/fr.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestExportAllUsers(t *testing.T) {
	s := newTestStore(t)
	userID := createTestUser(t, s, "marie")

	sess := model.Session{ID: 1, UserID: userID, Mode: model.ModeQuizMCQ, CreatedAt: time.Now()}
	if err := s.CreateStudySession(sess); err != nil {
		t.Fatalf("CreateStudySession: %v", err)
	}
	if err := s.FinishStudySession(sess.ID, model.SessionStats{Correct: 9, Total: 10, Percentage: 90}); err != nil {
		t.Fatalf("FinishStudySession: %v", err)
	}

	results, err := s.ExportAllUsers()
	if err != nil {
		t.Fatalf("ExportAllUsers: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Username != "marie" {
		t.Errorf("unexpected username %q", r.Username)
	}
	if len(r.Sessions) != 1 || r.Sessions[0].Score != 90 {
		t.Errorf("unexpected sessions %+v", r.Sessions)
	}
}
