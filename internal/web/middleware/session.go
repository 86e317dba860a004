package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName      = "attendance_session"
	sessionDuration        = 24 * time.Hour
	sessionCleanupInterval = time.Hour
)

// Session represents a logged-in dealer bound to one tenant
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Tenant    string    `json:"tenant"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepository persists sessions across restarts
type SessionRepository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionManager handles session creation and validation. Sessions are kept
// in memory and, when a repository is given, written through to it.
type SessionManager struct {
	secret   []byte
	sessions map[string]*Session
	mu       sync.RWMutex
	repo     SessionRepository
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a new session manager. repo may be nil.
func NewSessionManager(secret string, repo SessionRepository) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		slog.Warn("WEB_SESSION_SECRET not set, using development secret")
		secret = "attendance-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		repo:     repo,
		stopCh:   make(chan struct{}),
	}
	go sm.cleanupLoop()
	return sm
}

// Stop ends the background cleanup of expired sessions
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stopCh) })
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanup()
		case <-sm.stopCh:
			return
		}
	}
}

func (sm *SessionManager) cleanup() {
	now := time.Now()
	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	if sm.repo == nil {
		return
	}
	n, err := sm.repo.DeleteExpired(context.Background())
	if err != nil {
		slog.Error("deleting expired sessions", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		slog.Info("expired sessions removed", slog.Int64("count", n))
	}
}

// CreateSession creates a new session for a dealer of the given tenant
func (sm *SessionManager) CreateSession(email, tenant string) (*Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        base64.URLEncoding.EncodeToString(idBytes),
		Email:     email,
		Tenant:    tenant,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionDuration),
	}

	if sm.repo != nil {
		if err := sm.repo.Save(context.Background(), session); err != nil {
			return nil, err
		}
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by ID, falling back to the repository for
// sessions created before a restart
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !ok && sm.repo != nil {
		stored, err := sm.repo.Get(context.Background(), sessionID)
		if err != nil {
			slog.Error("loading session", slog.String("error", err.Error()))
			return nil
		}
		if stored != nil {
			sm.mu.Lock()
			sm.sessions[sessionID] = stored
			sm.mu.Unlock()
			session, ok = stored, true
		}
	}
	if !ok {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		sm.DeleteSession(sessionID)
		return nil
	}

	return session
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.Delete(context.Background(), sessionID); err != nil {
			slog.Error("deleting session", slog.String("error", err.Error()))
		}
	}
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, r *http.Request, session *Session) {
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from the cookie or a bearer token
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		parts := strings.SplitN(cookie.Value, ".", 2)
		if len(parts) == 2 && sm.verifySignature(parts[0], parts[1]) {
			if session := sm.GetSession(parts[0]); session != nil {
				return session
			}
		}
	}

	authHeader := r.Header.Get("Authorization")
	if sessionID, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if session := sm.GetSession(sessionID); session != nil {
			return session
		}
	}

	return nil
}

func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SessionData is the public view of a session
type SessionData struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Tenant    string `json:"tenant"`
	ExpiresAt string `json:"expires_at"`
}

// ToJSON returns the session data for JSON response
func (s *Session) ToJSON() SessionData {
	return SessionData{
		SessionID: s.ID,
		Email:     s.Email,
		Tenant:    s.Tenant,
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
	}
}

// MarshalJSON implements json.Marshaler
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}
