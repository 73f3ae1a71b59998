package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/civique/internal/i18n"
	"github.com/pavelanni/civique/internal/model"
	"github.com/pavelanni/civique/internal/progress"
	"github.com/pavelanni/civique/internal/scoring"
	"github.com/pavelanni/civique/internal/session"
	"github.com/pavelanni/civique/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	gen    *session.Generator
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, g *session.Generator, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, gen: g, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/sessions", h.handleCreateSession)
		r.Get("/api/sessions/{sessionID}", h.handleGetSession)
		r.Post("/api/sessions/{sessionID}/answers", h.handleAnswer)
		r.Post("/api/sessions/{sessionID}/finish", h.handleFinish)
		r.Get("/api/progress", h.handleProgress)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorJSON writes a localized error message.
func (h *Handler) errorJSON(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error": appI18n.T(r.Context(), msgID)})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

type createSessionRequest struct {
	Mode          model.SessionMode    `json:"mode"`
	Count         int                  `json:"count"`
	QuestionTypes []model.QuestionType `json:"question_types"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	if req.Mode == "" {
		req.Mode = model.ModeLearning
	}
	if req.Count <= 0 {
		req.Count = h.config.NumQuestions
	}

	bank, err := h.store.ListQuestions()
	if err != nil {
		slog.Error("list questions", "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	sess := h.gen.Generate(bank, req.Mode, req.Count, req.QuestionTypes)
	if len(sess.Questions) == 0 {
		h.errorJSON(w, r, http.StatusBadRequest, "NoQuestionsAvailable")
		return
	}
	sess.UserID = user.ID

	if err := h.store.CreateStudySession(sess); err != nil {
		slog.Error("create session", "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	slog.Info("session created", "id", sess.ID, "user", user.Username,
		"mode", sess.Mode, "questions", len(sess.Questions))
	writeJSON(w, http.StatusCreated, sess)
}

// loadOwnSession resolves the sessionID URL parameter and checks ownership.
// On failure it writes the error response and returns nil.
func (h *Handler) loadOwnSession(w http.ResponseWriter, r *http.Request) *model.Session {
	user := model.UserFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return nil
	}
	sess, err := h.store.GetStudySession(id)
	if err != nil {
		slog.Error("get session", "id", id, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return nil
	}
	if sess == nil {
		h.errorJSON(w, r, http.StatusNotFound, "SessionNotFound")
		return nil
	}
	if sess.UserID != user.ID {
		h.errorJSON(w, r, http.StatusForbidden, "SessionForbidden")
		return nil
	}
	return sess
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.loadOwnSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type answerRequest struct {
	QuestionID    int64  `json:"question_id"`
	Answer        string `json:"answer"`
	SelectedIndex *int   `json:"selected_index"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess := h.loadOwnSession(w, r)
	if sess == nil {
		return
	}

	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	var question *model.Question
	for i := range sess.Questions {
		if sess.Questions[i].ID == req.QuestionID {
			question = &sess.Questions[i]
			break
		}
	}
	if question == nil {
		h.errorJSON(w, r, http.StatusBadRequest, "QuestionNotInSession")
		return
	}

	if question.Type != model.TypeMCQ && req.Answer == "" {
		h.errorJSON(w, r, http.StatusBadRequest, "AnswerEmpty")
		return
	}
	if question.Type == model.TypeMCQ && req.SelectedIndex == nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	rec := gradeAnswer(*question, req)
	if err := h.store.AddAnswer(sess.ID, rec); err != nil {
		slog.Error("add answer", "session", sess.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// gradeAnswer scores one answer: index comparison for multiple choice,
// semantic match for free text.
func gradeAnswer(q model.Question, req answerRequest) model.AnswerRecord {
	rec := model.AnswerRecord{
		QuestionID:    q.ID,
		UserAnswer:    req.Answer,
		SelectedIndex: -1,
		CreatedAt:     time.Now(),
	}

	if q.Type == model.TypeMCQ {
		rec.SelectedIndex = *req.SelectedIndex
		rec.IsCorrect = rec.SelectedIndex == q.CorrectIndex
		return rec
	}

	match := scoring.Score(req.Answer, q.KeyPoints, q.Answer, q.Text)
	rec.MatchDetails = &match
	rec.IsCorrect = match.Score >= model.PassingScore
	if q.SuggestedFormulation != "" {
		rec.PerfectFormulation = scoring.IsPerfectFormulation(req.Answer, q.SuggestedFormulation)
	}
	return rec
}

type finishResponse struct {
	Stats     model.SessionStats `json:"stats"`
	NewBadges []string           `json:"new_badges"`
	Message   string             `json:"message,omitempty"`
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	sess := h.loadOwnSession(w, r)
	if sess == nil {
		return
	}

	history, err := h.store.GetAnswers(sess.ID)
	if err != nil {
		slog.Error("get answers", "session", sess.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	stats := session.Aggregate(history)
	if err := h.store.FinishStudySession(sess.ID, stats); err != nil {
		slog.Error("finish session", "session", sess.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	p, err := h.store.GetProgress(user.ID)
	if err != nil {
		slog.Error("get progress", "user", user.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	earned := progress.Apply(&p, stats, sess.Mode, time.Now())
	if err := h.store.SaveProgress(p); err != nil {
		slog.Error("save progress", "user", user.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	resp := finishResponse{Stats: stats, NewBadges: earned}
	if len(earned) > 0 {
		resp.Message = appI18n.Tp(r.Context(), "BadgesEarned", len(earned))
	}
	slog.Info("session finished", "id", sess.ID, "user", user.Username,
		"score", stats.Percentage, "new_badges", len(earned))
	writeJSON(w, http.StatusOK, resp)
}

type progressResponse struct {
	Progress model.UserProgress     `json:"progress"`
	Sessions []model.SessionSummary `json:"sessions"`
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	p, err := h.store.GetProgress(user.ID)
	if err != nil {
		slog.Error("get progress", "user", user.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	sessions, err := h.store.ListSessionSummaries(user.ID, 50)
	if err != nil {
		slog.Error("list session summaries", "user", user.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Progress: p, Sessions: sessions})
}
