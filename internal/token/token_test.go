package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, hits *int32, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/gettoken", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("appkey"))
		assert.Equal(t, "secret", r.URL.Query().Get("appsecret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newRequester(t *testing.T, baseURL string) *requester.HTTPRequester {
	t.Helper()
	r, err := requester.New(baseURL, time.Second)
	require.NoError(t, err)
	return r
}

func TestStatic(t *testing.T) {
	tok, err := Static("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = Static("").Token(context.Background())
	assert.Error(t, err)
}

func TestAppTokenSource_Token(t *testing.T) {
	var hits int32
	server := newTokenServer(t, &hits, `{"errcode":0,"errmsg":"ok","access_token":"app-token","expires_in":7200}`)

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewAppTokenSource(context.Background(), newRequester(t, server.URL), "key", "secret")
	src.now = func() time.Time { return fixed }

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "app-token", tok.AccessToken)
	assert.Equal(t, fixed.Add(2*time.Hour-expiryDelta), tok.Expiry)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAppTokenSource_APIError(t *testing.T) {
	var hits int32
	server := newTokenServer(t, &hits, `{"errcode":40089,"errmsg":"invalid appkey"}`)

	src := NewAppTokenSource(context.Background(), newRequester(t, server.URL), "key", "secret")
	_, err := src.Token()

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 40089, apiErr.Code)
	assert.Equal(t, "invalid appkey", apiErr.Message)
}

func TestAppTokenSource_EmptyToken(t *testing.T) {
	var hits int32
	server := newTokenServer(t, &hits, `{"errcode":0}`)

	src := NewAppTokenSource(context.Background(), newRequester(t, server.URL), "key", "secret")
	_, err := src.Token()
	assert.Error(t, err)
}

func TestCached_ReusesToken(t *testing.T) {
	var hits int32
	server := newTokenServer(t, &hits, `{"errcode":0,"access_token":"cached","expires_in":7200}`)

	provider := NewCached(NewAppTokenSource(context.Background(), newRequester(t, server.URL), "key", "secret"))

	for i := 0; i < 3; i++ {
		tok, err := provider.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached", tok)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
