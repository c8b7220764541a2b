package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// ReviewerCookieName is the cookie holding the reviewer session id
	ReviewerCookieName = "projecta_reviewer"
	reviewerSessionKey = "session_id"
)

// ErrNoReviewerCookie is returned when the request carries no reviewer session
var ErrNoReviewerCookie = errors.New("no reviewer session in cookie")

// CookieStoreConfig holds reviewer cookie settings
type CookieStoreConfig struct {
	Secret []byte
	MaxAge int // seconds
	Secure bool
}

// ReviewerCookieStore keeps the reviewer session id in a signed cookie.
// The session itself lives in a ReviewerSessionRegistry.
type ReviewerCookieStore struct {
	store *sessions.CookieStore
}

// NewReviewerCookieStore creates a signed cookie store
func NewReviewerCookieStore(cfg CookieStoreConfig) (*ReviewerCookieStore, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("reviewer cookie secret must be at least 32 bytes")
	}
	store := sessions.NewCookieStore(cfg.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &ReviewerCookieStore{store: store}, nil
}

// SetSessionID writes the session id cookie
func (s *ReviewerCookieStore) SetSessionID(r *http.Request, w http.ResponseWriter, id string) error {
	session, err := s.store.Get(r, ReviewerCookieName)
	if err != nil && session == nil {
		return fmt.Errorf("get reviewer cookie: %w", err)
	}
	session.Values[reviewerSessionKey] = id
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save reviewer cookie: %w", err)
	}
	return nil
}

// SessionID reads the session id cookie
func (s *ReviewerCookieStore) SessionID(r *http.Request) (string, error) {
	session, err := s.store.Get(r, ReviewerCookieName)
	if err != nil {
		return "", ErrNoReviewerCookie
	}
	id, ok := session.Values[reviewerSessionKey].(string)
	if !ok || id == "" {
		return "", ErrNoReviewerCookie
	}
	return id, nil
}

// Clear expires the cookie
func (s *ReviewerCookieStore) Clear(r *http.Request, w http.ResponseWriter) error {
	session, _ := s.store.Get(r, ReviewerCookieName)
	if session == nil {
		return nil
	}
	delete(session.Values, reviewerSessionKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
