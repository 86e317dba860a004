package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/UjjwalAsati/Attendance-System/internal/config"
	"github.com/UjjwalAsati/Attendance-System/internal/web/middleware"
)

// AuthHandler handles dealer authentication endpoints
type AuthHandler struct {
	accounts       []config.Account
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		accounts:       cfg.Accounts(),
		sessionManager: sm,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Tenant    string `json:"tenant,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns the same bcrypt work for unknown emails as for known ones.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("attendance-dummy-password"), bcrypt.DefaultCost)
	})
	bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// authenticate returns the account matching the credentials, or nil
func (h *AuthHandler) authenticate(email, password string) *config.Account {
	for i := range h.accounts {
		acc := &h.accounts[i]
		if subtle.ConstantTimeCompare([]byte(strings.ToLower(acc.Email)), []byte(email)) != 1 {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			return nil
		}
		return acc
	}
	compareDummy(password)
	return nil
}

// Login checks dealer credentials and opens a session bound to the
// account's tenant
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "email and password are required")
		return
	}

	acc := h.authenticate(email, req.Password)
	if acc == nil {
		slog.Warn("login failed", slog.String("email", sanitizeForLog(email)))
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	session, err := h.sessionManager.CreateSession(acc.Email, acc.Tenant)
	if err != nil {
		slog.Error("creating session", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, r, session)

	slog.Info("dealer logged in",
		slog.String("email", sanitizeForLog(acc.Email)),
		slog.String("tenant", acc.Tenant),
	)
	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		Tenant:    session.Tenant,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Tenant        string `json:"tenant,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Email:         session.Email,
		Tenant:        session.Tenant,
		ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
