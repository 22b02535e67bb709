// Package token provides the access token used by the server-to-server API.
package token

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/brizzai/dingtalk-oauth/internal/auth/constants"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// expiryDelta renews a token slightly before the platform expires it
const expiryDelta = 5 * time.Minute

// Provider supplies a valid access token
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// APIError is returned when gettoken answers with a non-zero errcode
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gettoken failed: errcode=%d errmsg=%s", e.Code, e.Message)
}

// Static always returns the same token
type Static string

func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return string(s), nil
}

type getTokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AppTokenSource fetches app access tokens from the gettoken endpoint.
// It implements oauth2.TokenSource.
type AppTokenSource struct {
	ctx       context.Context
	requester *requester.HTTPRequester
	appKey    string
	appSecret string
	now       func() time.Time
}

// NewAppTokenSource creates a token source for the given app credentials.
// ctx bounds every fetch made through the source.
func NewAppTokenSource(ctx context.Context, r *requester.HTTPRequester, appKey, appSecret string) *AppTokenSource {
	return &AppTokenSource{
		ctx:       ctx,
		requester: r,
		appKey:    appKey,
		appSecret: appSecret,
		now:       time.Now,
	}
}

// Token implements oauth2.TokenSource
func (s *AppTokenSource) Token() (*oauth2.Token, error) {
	query := url.Values{
		"appkey":    {s.appKey},
		"appsecret": {s.appSecret},
	}
	resp, err := s.requester.Get(s.ctx, constants.GetTokenPath, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request access token: %w", err)
	}

	var body getTokenResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}
	if body.ErrCode != 0 {
		return nil, &APIError{Code: body.ErrCode, Message: body.ErrMsg}
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("gettoken returned an empty access token")
	}

	logger.Debug("fetched app access token",
		zap.String("app_key", logger.Mask(s.appKey)),
		zap.Int64("expires_in", body.ExpiresIn),
	)

	tok := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
	}
	if body.ExpiresIn > 0 {
		tok.Expiry = s.now().Add(time.Duration(body.ExpiresIn)*time.Second - expiryDelta)
	}
	return tok, nil
}

// Cached reuses a token until it expires
type Cached struct {
	src oauth2.TokenSource
}

// NewCached wraps src in oauth2.ReuseTokenSource
func NewCached(src oauth2.TokenSource) *Cached {
	return &Cached{src: oauth2.ReuseTokenSource(nil, src)}
}

// Token returns the cached token, fetching a new one when expired
func (c *Cached) Token(context.Context) (string, error) {
	tok, err := c.src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

type ProviderParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Requester *requester.HTTPRequester
}

// NewProvider picks the token provider from the access_token config section.
// A static token wins over app credentials.
func NewProvider(params ProviderParams) Provider {
	cfg := params.Config.AccessToken
	if cfg.Token != "" {
		return Static(cfg.Token)
	}

	ctx, cancel := context.WithCancel(context.Background())
	params.Lifecycle.Append(fx.StopHook(cancel))
	return NewCached(NewAppTokenSource(ctx, params.Requester, cfg.AppKey, cfg.AppSecret))
}

// Module provides the token provider
var Module = fx.Module("token",
	fx.Provide(NewProvider),
)
