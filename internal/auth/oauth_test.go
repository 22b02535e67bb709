package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"github.com/brizzai/dingtalk-oauth/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(apiURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			DefaultProfile: "web",
			Exchange:       config.ExchangeLegacy,
			AllowOrigins:   []string{"https://app.example"},
		},
		API: config.APIConfig{BaseURL: apiURL},
		OAuth: map[string]config.CredentialConfig{
			"web": {
				ClientID:     "dingoa123",
				ClientSecret: "secret123",
				Scope:        "snsapi_login",
				Redirect:     "https://app.example/callback",
			},
			"mobile": {
				ClientID:     "dingoa456",
				ClientSecret: "secret456",
				Scope:        "snsapi_auth",
			},
		},
	}
}

func newTestService(t *testing.T, apiURL string) *Service {
	t.Helper()
	cfg := newTestConfig(apiURL)
	r, err := requester.New(apiURL, time.Second)
	require.NoError(t, err)

	return NewService(ServiceParams{
		Config:    cfg,
		Requester: r,
		Tokens:    token.Static("app-token"),
		States:    state.NewKeyedResolver(state.NewMemoryBackend(time.Minute), "sid", time.Minute, false),
	})
}

func TestService_Use(t *testing.T) {
	service := newTestService(t, "http://api.invalid/")

	c, err := service.Use("")
	require.NoError(t, err)
	assert.Equal(t, "dingoa123", c.Credential().ClientID)
	assert.Equal(t, "https://app.example/callback", c.RedirectURL())

	c, err = service.Use("mobile")
	require.NoError(t, err)
	assert.Equal(t, "dingoa456", c.Credential().ClientID)
	assert.Empty(t, c.RedirectURL())

	_, err = service.Use("desktop")
	assert.ErrorIs(t, err, config.ErrUnknownProfile)
}

func TestRegisterRoutes(t *testing.T) {
	service := newTestService(t, "http://api.invalid/")
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	for _, route := range []string{"/oauth/authorize", "/oauth/callback", "/healthz"} {
		r := httptest.NewRequest(http.MethodGet, route, nil)
		h, pattern := mux.Handler(r)
		assert.NotEmpty(t, pattern, "route %s not registered", route)
		assert.NotNil(t, h)
	}
}

func TestWrapWithCors(t *testing.T) {
	service := newTestService(t, "http://api.invalid/")
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	service.WrapWithCors(h).ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestService_AuthorizeThenCallback(t *testing.T) {
	var hits int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/sns/getuserinfo_bycode", r.URL.Path)
		assert.Equal(t, "dingoa123", r.URL.Query().Get("accessKey"))
		_, _ = w.Write([]byte(`{"errcode":0,"user_info":{"nick":"Zhang"}}`))
	}))
	defer api.Close()

	service := newTestService(t, api.URL)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	// authorize
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize?mode=qr", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/connect/qrconnect", location.Path)
	issued := location.Query().Get("state")
	require.Len(t, issued, 40)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	// callback with a forged state
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state=forged", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
	assert.Equal(t, 0, hits)

	// callback with the issued state
	req = httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state="+issued, nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"nick": "Zhang"}, body["user_info"])
}
