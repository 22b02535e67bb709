// Package client implements the DingTalk authorization code flow for one
// named credential set.
package client

import (
	"github.com/brizzai/dingtalk-oauth/internal/auth/models"
	"github.com/brizzai/dingtalk-oauth/internal/auth/signature"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
)

// Client is an immutable view of one credential set. Methods that change
// settings return a copy.
type Client struct {
	credential models.Credential
	redirect   string
	requester  *requester.HTTPRequester
	tokens     requester.TokenProvider
	clock      func() int64
}

// New creates a Client. tokens may be nil when the bearer call is never used.
func New(cred models.Credential, r *requester.HTTPRequester, tokens requester.TokenProvider) *Client {
	return &Client{
		credential: cred,
		requester:  r,
		tokens:     tokens,
		clock:      signature.Now,
	}
}

// Credential returns the credential set the client was built with
func (c *Client) Credential() models.Credential {
	return c.credential
}

// WithRedirectURL returns a copy whose configured redirect replaces the
// credential default
func (c *Client) WithRedirectURL(u string) *Client {
	cp := *c
	cp.redirect = u
	return &cp
}

// WithClock returns a copy that reads legacy call timestamps from clock
func (c *Client) WithClock(clock func() int64) *Client {
	cp := *c
	cp.clock = clock
	return &cp
}

// RedirectURL returns the configured redirect, or the credential default
func (c *Client) RedirectURL() string {
	return ResolveRedirectURI("", c.redirect, c.credential.Redirect)
}

// ResolveRedirectURI picks the first non-empty of override, configured and
// fallback.
func ResolveRedirectURI(override, configured, fallback string) string {
	switch {
	case override != "":
		return override
	case configured != "":
		return configured
	default:
		return fallback
	}
}
