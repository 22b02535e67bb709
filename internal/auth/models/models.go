package models

import "errors"

// ErrInvalidState is returned when the callback state does not match the
// issued one. It is terminal for the authentication attempt.
var ErrInvalidState = errors.New("invalid state")

// Credential is one named DingTalk app credential set
type Credential struct {
	ClientID     string
	ClientSecret string
	Scope        string
	Redirect     string
}

// AuthorizationRequest is serialized into the authorization query string.
// Empty fields are omitted.
type AuthorizationRequest struct {
	AppID        string `url:"appid,omitempty"`
	ClientID     string `url:"client_id,omitempty"`
	ResponseType string `url:"response_type,omitempty"`
	Scope        string `url:"scope,omitempty"`
	State        string `url:"state,omitempty"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	Prompt       string `url:"prompt,omitempty"`
}

// UserInfo is the remote response body, passed through without interpretation
type UserInfo map[string]any

// Callback carries the two query parameters of the authorization callback
type Callback struct {
	Code  string
	State string
}
