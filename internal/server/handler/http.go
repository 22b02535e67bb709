// Package handler assembles the HTTP handler stack of the server.
package handler

import (
	"net/http"

	"github.com/brizzai/dingtalk-oauth/internal/auth"
	"github.com/brizzai/dingtalk-oauth/internal/auth/middleware"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth *auth.Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(auth *auth.Service) *Handler {
	return &Handler{
		auth: auth,
	}
}

// CreateHTTPHandler registers the OAuth routes and wraps them with CORS and
// request logging.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	h.auth.RegisterRoutes(mux)
	logger.Info("Registered authentication routes")

	return middleware.RequestLogger(h.auth.WrapWithCors(mux))
}
