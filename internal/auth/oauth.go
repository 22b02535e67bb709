// Package auth wires the DingTalk OAuth clients and their HTTP surface.
package auth

import (
	"net/http"

	"github.com/brizzai/dingtalk-oauth/internal/auth/client"
	"github.com/brizzai/dingtalk-oauth/internal/auth/constants"
	"github.com/brizzai/dingtalk-oauth/internal/auth/handlers"
	"github.com/brizzai/dingtalk-oauth/internal/auth/middleware"
	"github.com/brizzai/dingtalk-oauth/internal/auth/models"
	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/requester"
	"github.com/brizzai/dingtalk-oauth/internal/token"
	"go.uber.org/fx"
)

// Service represents the OAuth service
type Service struct {
	config    *config.Config
	requester *requester.HTTPRequester
	tokens    token.Provider
	handler   *handlers.Handler
}

type ServiceParams struct {
	fx.In

	Config    *config.Config
	Requester *requester.HTTPRequester
	Tokens    token.Provider
	States    state.Resolver
}

// NewService creates a new OAuth service
func NewService(params ServiceParams) *Service {
	s := &Service{
		config:    params.Config,
		requester: params.Requester,
		tokens:    params.Tokens,
	}
	s.handler = handlers.NewHandler(s, params.States, params.Config.Server.Exchange)
	return s
}

// Use returns the client of a named credential set. An empty name selects
// the default profile.
func (s *Service) Use(profile string) (*client.Client, error) {
	cred, err := s.config.Credential(profile)
	if err != nil {
		return nil, err
	}

	return client.New(models.Credential{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scope:        cred.Scope,
		Redirect:     cred.Redirect,
	}, s.requester, s.tokens), nil
}

// RegisterRoutes registers all OAuth-related routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.AuthorizeRoute, s.handler.HandleAuthorize)
	mux.HandleFunc(constants.CallbackRoute, s.handler.HandleCallback)
	mux.HandleFunc(constants.HealthRoute, s.handler.HandleHealth)
}

// WrapWithCors wraps the mux with the CORS middleware
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORSWithOrigins(s.config.Server.AllowOrigins)(handler)
}

// Module provides the OAuth service
var Module = fx.Module("auth",
	fx.Provide(NewService),
)
