package state

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Resolver picks the Store of an inbound request
type Resolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) Store
}

// SessionResolver binds a cookie session per request
type SessionResolver struct {
	store  sessions.Store
	name   string
	ttl    time.Duration
	secure bool
}

// NewSessionResolver creates a SessionResolver
func NewSessionResolver(store sessions.Store, name string, ttl time.Duration, secure bool) *SessionResolver {
	return &SessionResolver{store: store, name: name, ttl: ttl, secure: secure}
}

func (s *SessionResolver) Resolve(w http.ResponseWriter, r *http.Request) Store {
	return NewSessionStore(s.store, s.name, s.ttl, s.secure, w, r)
}

// KeyedResolver identifies the caller by a cookie holding a random id and
// binds a keyed backend to it.
type KeyedResolver struct {
	backend    Backend
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewKeyedResolver creates a KeyedResolver
func NewKeyedResolver(backend Backend, cookieName string, ttl time.Duration, secure bool) *KeyedResolver {
	return &KeyedResolver{backend: backend, cookieName: cookieName, ttl: ttl, secure: secure}
}

func (k *KeyedResolver) Resolve(w http.ResponseWriter, r *http.Request) Store {
	if c, err := r.Cookie(k.cookieName); err == nil && c.Value != "" {
		return Bind(k.backend, c.Value)
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     k.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(k.ttl / time.Second),
		Secure:   k.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return Bind(k.backend, id)
}

// SecureCookies reports whether cookies for a service reachable at baseURL
// should be https only
func SecureCookies(baseURL string) bool {
	u, err := url.Parse(baseURL)
	return err == nil && strings.EqualFold(u.Scheme, "https")
}

type ResolverParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
}

// NewResolver builds the resolver selected by state.backend
func NewResolver(params ResolverParams) (Resolver, error) {
	cfg := params.Config.State
	ttl := cfg.TTLDuration()
	secure := SecureCookies(params.Config.Server.BaseURL)

	switch cfg.Backend {
	case config.StateBackendMemory, "":
		return NewKeyedResolver(NewMemoryBackend(ttl), cfg.CookieName, ttl, secure), nil

	case config.StateBackendSession:
		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("state.session_secret is required for the session backend")
		}
		return NewSessionResolver(sessions.NewCookieStore([]byte(cfg.SessionSecret)), cfg.CookieName, ttl, secure), nil

	case config.StateBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), DefaultDialTimeout)
		defer cancel()

		backend, err := NewRedisBackend(ctx, RedisOptions{
			Addr:      cfg.Redis.Addr,
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       ttl,
		})
		if err != nil {
			return nil, err
		}
		params.Lifecycle.Append(fx.StopHook(func() {
			if err := backend.Close(); err != nil {
				logger.Warn("failed to close redis client", zap.Error(err))
			}
		}))
		return NewKeyedResolver(backend, cfg.CookieName, ttl, secure), nil

	default:
		return nil, fmt.Errorf("unsupported state backend %q", cfg.Backend)
	}
}

// Module provides the state resolver
var Module = fx.Module("state",
	fx.Provide(NewResolver),
)
