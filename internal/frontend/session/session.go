// Package session keeps the front end's per-browser state: who is logged in
// (user, admin or restaurant manager) and the chosen delivery location. The
// browser only holds a signed session id; the data lives in a Store.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const CookieName = "fd_session"

type Data struct {
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`

	AdminID   string `json:"admin_id,omitempty"`
	AdminName string `json:"admin_name,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`

	RestaurantID    string `json:"restaurant_id,omitempty"`
	RestaurantName  string `json:"restaurant_name,omitempty"`
	RestaurantEmail string `json:"restaurant_email,omitempty"`
	IsRestaurant    bool   `json:"is_restaurant,omitempty"`
}

type Session struct {
	ID   string
	Data Data
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewManager signs cookies with secret. secure sets the cookie's Secure flag.
func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, secure: secure}
}

// Load returns the request's session, or a fresh empty one when the cookie
// is missing, tampered with or points at an expired record.
func (m *Manager) Load(r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, ok := m.verify(c.Value); ok {
			d, err := m.store.Load(r.Context(), id)
			if err != nil {
				slog.WarnContext(r.Context(), "session store unavailable", "error", err)
			}
			if d != nil {
				return &Session{ID: id, Data: *d}
			}
		}
	}
	return &Session{ID: uuid.NewString()}
}

// Save persists s and (re)issues the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Save(ctx, s.ID, &s.Data, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Renew moves s to a fresh id and drops the record under the old one. Call it
// whenever the session's identity changes so a cookie issued before login
// stops working.
func (m *Manager) Renew(ctx context.Context, s *Session) {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		slog.WarnContext(ctx, "failed to delete session", "error", err)
	}
	s.ID = uuid.NewString()
}

// Clear deletes the stored session and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, s *Session) {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		slog.WarnContext(ctx, "failed to delete session", "error", err)
	}
	s.Data = Data{}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, bool) {
	id, _, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	return id, hmac.Equal([]byte(m.sign(id)), []byte(value))
}
