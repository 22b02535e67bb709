package client

import (
	"context"
	"fmt"

	"github.com/brizzai/dingtalk-oauth/internal/auth/constants"
	"github.com/brizzai/dingtalk-oauth/internal/auth/models"
	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"go.uber.org/zap"
)

// ParseVariant maps a variant name to an exchange variant. An empty name
// yields fallback.
func ParseVariant(s string, fallback config.ExchangeVariant) (config.ExchangeVariant, error) {
	switch config.ExchangeVariant(s) {
	case "":
		return fallback, nil
	case config.ExchangeLegacy, config.ExchangeBearer:
		return config.ExchangeVariant(s), nil
	default:
		return "", fmt.Errorf("unknown exchange variant %q", s)
	}
}

// Exchange validates the callback state and fetches user info with the
// selected call.
func (c *Client) Exchange(ctx context.Context, variant config.ExchangeVariant, states state.Store, cb models.Callback) (models.UserInfo, error) {
	switch variant {
	case config.ExchangeBearer:
		return c.UserInfo(ctx, states, cb)
	case config.ExchangeLegacy, "":
		return c.UserInfoByCode(ctx, states, cb)
	default:
		return nil, fmt.Errorf("unknown exchange variant %q", variant)
	}
}

// UserInfoByCode exchanges the code through the legacy signed call
// sns/getuserinfo_bycode.
func (c *Client) UserInfoByCode(ctx context.Context, states state.Store, cb models.Callback) (models.UserInfo, error) {
	if !states.Validate(ctx, cb.State) {
		return nil, models.ErrInvalidState
	}

	auth := &requester.SignatureAuth{
		AccessKey: c.credential.ClientID,
		Secret:    c.credential.ClientSecret,
		Clock:     c.clock,
	}
	body := map[string]string{constants.ParamTmpAuthCode: cb.Code}
	return c.postJSON(ctx, constants.UserInfoByCodePath, body, auth)
}

// UserInfo exchanges the code through topapi/v2/user/getuserinfo using an
// app access token.
func (c *Client) UserInfo(ctx context.Context, states state.Store, cb models.Callback) (models.UserInfo, error) {
	if !states.Validate(ctx, cb.State) {
		return nil, models.ErrInvalidState
	}

	body := map[string]string{constants.ParamCode: cb.Code}
	return c.postJSON(ctx, constants.UserInfoPath, body, requester.NewAccessTokenAuth(c.tokens))
}

func (c *Client) postJSON(ctx context.Context, path string, body any, auth requester.AuthManager) (models.UserInfo, error) {
	resp, err := c.requester.PostJSON(ctx, path, body, nil, auth)
	if err != nil {
		return nil, fmt.Errorf("user info request to %s failed: %w", path, err)
	}

	var info models.UserInfo
	if err := resp.DecodeJSON(&info); err != nil {
		return nil, err
	}

	logger.Debug("fetched user info",
		zap.String("path", path),
		zap.String("client_id", logger.Mask(c.credential.ClientID)),
	)
	return info, nil
}
