package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// CookieName is the name of the admin session cookie
	CookieName = "session"
	// FlashCookieName is the name of the one-shot message cookie
	FlashCookieName = "flash"
	// RememberDuration is how long a "remember me" session lasts
	RememberDuration = 30 * 24 * time.Hour
	// SessionDuration bounds a browser session on the server side
	SessionDuration = 24 * time.Hour
)

// Store defines the interface for session persistence
type Store interface {
	// Issue creates a new admin session valid for ttl and returns its token
	Issue(ctx context.Context, ttl time.Duration) (string, error)
	// Validate returns nil if the token belongs to a live admin session
	Validate(ctx context.Context, token string) error
	// Revoke ends the session of a token
	Revoke(ctx context.Context, token string) error
}

// manager reads and writes the admin session cookie
type manager struct {
	store  Store
	secure bool
	logger *zap.Logger
}

// NewManager creates a new session manager
func NewManager(store Store, secure bool, logger *zap.Logger) *manager {
	return &manager{
		store:  store,
		secure: secure,
		logger: logger,
	}
}

// IsAdmin reports whether the request carries a valid admin session
func (m *manager) IsAdmin(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	if err := m.store.Validate(r.Context(), cookie.Value); err != nil {
		m.logger.Debug("rejected admin session", zap.Error(err))
		return false
	}
	return true
}

// Login starts an admin session. With remember the cookie persists for 30 days,
// otherwise it lives until the browser is closed.
func (m *manager) Login(w http.ResponseWriter, r *http.Request, remember bool) error {
	ttl := SessionDuration
	if remember {
		ttl = RememberDuration
	}

	token, err := m.store.Issue(r.Context(), ttl)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(RememberDuration.Seconds())
		cookie.Expires = time.Now().Add(RememberDuration)
	}
	http.SetCookie(w, cookie)
	return nil
}

// Logout clears the admin session
func (m *manager) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.Revoke(r.Context(), cookie.Value); err != nil {
			m.logger.Error("failed to revoke session", zap.Error(err))
		}
	}
	http.SetCookie(w, m.expired(CookieName))
}

// SetFlash stores a message shown once on the next page
func (m *manager) SetFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending message, if any, and clears it
func (m *manager) PopFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, m.expired(FlashCookieName))
	message, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(message)
}

func (m *manager) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
