package state

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestKeyedResolver_SetsIdentityCookie(t *testing.T) {
	resolver := NewKeyedResolver(NewMemoryBackend(time.Minute), "sid", time.Minute, false)

	rec := httptest.NewRecorder()
	store := resolver.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	token, err := store.Issue(ctx)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.False(t, cookies[0].Secure)

	// same identity on the callback
	callback := httptest.NewRequest(http.MethodGet, "/cb", nil)
	callback.AddCookie(cookies[0])
	callbackRec := httptest.NewRecorder()
	assert.True(t, resolver.Resolve(callbackRec, callback).Validate(ctx, token))
	assert.Empty(t, callbackRec.Result().Cookies(), "existing identity is reused")

	// a different browser has no state
	other := resolver.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cb", nil))
	assert.False(t, other.Validate(ctx, token))
}

func TestNewResolver(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.StateConfig
		want    any
		wantErr bool
	}{
		{name: "memory", cfg: config.StateConfig{Backend: config.StateBackendMemory, CookieName: "c"}, want: &KeyedResolver{}},
		{name: "default", cfg: config.StateConfig{CookieName: "c"}, want: &KeyedResolver{}},
		{name: "session", cfg: config.StateConfig{Backend: config.StateBackendSession, SessionSecret: "s3cr3t", CookieName: "c"}, want: &SessionResolver{}},
		{name: "session without secret", cfg: config.StateConfig{Backend: config.StateBackendSession}, wantErr: true},
		{name: "redis", cfg: config.StateConfig{Backend: config.StateBackendRedis, CookieName: "c", Redis: config.RedisConfig{Addr: mr.Addr()}}, want: &KeyedResolver{}},
		{name: "redis unreachable", cfg: config.StateConfig{Backend: config.StateBackendRedis, Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}, wantErr: true},
		{name: "unknown", cfg: config.StateConfig{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			resolver, err := NewResolver(ResolverParams{
				Lifecycle: lc,
				Config:    &config.Config{State: tt.cfg},
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, resolver)
			lc.RequireStart().RequireStop()
		})
	}
}

func TestSecureCookies(t *testing.T) {
	assert.True(t, SecureCookies("https://oauth.example"))
	assert.True(t, SecureCookies("HTTPS://oauth.example/base"))
	assert.False(t, SecureCookies("http://127.0.0.1:3000"))
	assert.False(t, SecureCookies(""))
	assert.False(t, SecureCookies("::not a url"))
}

func TestNewResolver_SecureCookieFromBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		backend config.StateBackend
		want    bool
	}{
		{name: "memory https", baseURL: "https://oauth.example", backend: config.StateBackendMemory, want: true},
		{name: "memory http", baseURL: "http://127.0.0.1:3000", backend: config.StateBackendMemory, want: false},
		{name: "session https", baseURL: "https://oauth.example", backend: config.StateBackendSession, want: true},
		{name: "session http", baseURL: "http://127.0.0.1:3000", backend: config.StateBackendSession, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, err := NewResolver(ResolverParams{
				Lifecycle: fxtest.NewLifecycle(t),
				Config: &config.Config{
					Server: config.ServerConfig{BaseURL: tt.baseURL},
					State: config.StateConfig{
						Backend:       tt.backend,
						CookieName:    "c",
						SessionSecret: "0123456789abcdef0123456789abcdef",
					},
				},
			})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			_, err = resolver.Resolve(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)).Issue(ctx)
			require.NoError(t, err)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, tt.want, cookies[0].Secure)
		})
	}
}
