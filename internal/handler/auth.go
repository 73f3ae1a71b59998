package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/civique/internal/model"
	"github.com/pavelanni/civique/internal/progress"
)

const sessionCookieName = "civique_session"

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.errorJSON(w, r, http.StatusBadRequest, "RegisterMissingFields")
		return
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("lookup user", "username", req.Username, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if existing != nil {
		h.errorJSON(w, r, http.StatusConflict, "UsernameTaken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	user := model.User{
		Username:     req.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Active:       true,
	}
	id, err := h.store.CreateUser(user, progress.NewProgress(time.Now()))
	if err != nil {
		slog.Error("create user", "username", req.Username, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       id,
		"username": user.Username,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	user, err := h.store.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		slog.Error("lookup user", "username", req.Username, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if user == nil {
		h.errorJSON(w, r, http.StatusUnauthorized, "LoginError")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.errorJSON(w, r, http.StatusUnauthorized, "LoginError")
		return
	}
	if !user.Active {
		h.errorJSON(w, r, http.StatusForbidden, "AccountDisabled")
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("create auth session", "user", user.ID, "error", err)
		h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"username":     user.Username,
		"display_name": user.DisplayName,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Error("delete auth session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// requireAuth resolves the session cookie into a user and stores it in
// the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			h.errorJSON(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("get auth session", "error", err)
			h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
		if sess == nil {
			h.errorJSON(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := h.store.GetUserByID(sess.UserID)
		if err != nil {
			slog.Error("get user", "id", sess.UserID, "error", err)
			h.errorJSON(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
		if user == nil || !user.Active {
			h.errorJSON(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), user)))
	})
}
