package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const sessionStateKey = "oauth_state"

// SessionStore keeps the expected state in a gorilla session bound to one
// request/response pair.
type SessionStore struct {
	store  sessions.Store
	name   string
	ttl    time.Duration
	secure bool
	w      http.ResponseWriter
	r      *http.Request
}

// NewSessionStore binds a session store to the current request. secure marks
// the session cookie as https only.
func NewSessionStore(store sessions.Store, name string, ttl time.Duration, secure bool, w http.ResponseWriter, r *http.Request) *SessionStore {
	return &SessionStore{
		store:  store,
		name:   name,
		ttl:    ttl,
		secure: secure,
		w:      w,
		r:      r,
	}
}

func (s *SessionStore) Issue(context.Context) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	sess, err := s.store.Get(s.r, s.name)
	if sess == nil {
		if err == nil {
			err = errors.New("session store returned no session")
		}
		return "", fmt.Errorf("failed to load session %s: %w", s.name, err)
	}
	// a session that fails to decode comes back fresh and is overwritten
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values[sessionStateKey] = token

	if err := sess.Save(s.r, s.w); err != nil {
		return "", err
	}
	return token, nil
}

func (s *SessionStore) Validate(_ context.Context, state string) bool {
	sess, err := s.store.Get(s.r, s.name)
	if err != nil || sess == nil {
		return false
	}
	expected, _ := sess.Values[sessionStateKey].(string)
	return matches(expected, state)
}
