package handlers

import (
	"errors"
	"net/http"

	"github.com/brizzai/dingtalk-oauth/internal/auth/client"
	"github.com/brizzai/dingtalk-oauth/internal/auth/constants"
	"github.com/brizzai/dingtalk-oauth/internal/auth/models"
	"github.com/brizzai/dingtalk-oauth/internal/auth/state"
	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"github.com/brizzai/dingtalk-oauth/internal/utils"
	"go.uber.org/zap"
)

// Clients resolves the client of a named credential set
type Clients interface {
	Use(profile string) (*client.Client, error)
}

// Handler handles OAuth-related HTTP requests
type Handler struct {
	clients  Clients
	states   state.Resolver
	exchange config.ExchangeVariant
}

// NewHandler creates a new Handler instance
func NewHandler(clients Clients, states state.Resolver, exchange config.ExchangeVariant) *Handler {
	return &Handler{
		clients:  clients,
		states:   states,
		exchange: exchange,
	}
}

// HandleAuthorize issues a state token and redirects to the DingTalk
// authorization page
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	c, err := h.clients.Use(q.Get(constants.ParamProfile))
	if err != nil {
		utils.WriteError(w, constants.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	mode, err := client.ParseMode(q.Get(constants.ParamMode))
	if err != nil {
		utils.WriteError(w, constants.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	authURL, err := c.AuthCodeURL(r.Context(), h.states.Resolve(w, r), mode, q.Get(constants.ParamRedirectURI))
	if err != nil {
		logger.Error("Failed to build authorization URL", zap.Error(err))
		utils.WriteError(w, constants.ErrCodeServer, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	logger.Debug("Redirecting to authorization endpoint", zap.String("mode", string(mode)))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback checks the returned state and exchanges the code for user info
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	cb := models.Callback{
		Code:  q.Get(constants.ParamCode),
		State: q.Get(constants.ParamState),
	}
	if cb.Code == "" {
		utils.WriteError(w, constants.ErrCodeInvalidRequest, "Code is required", http.StatusBadRequest)
		return
	}

	c, err := h.clients.Use(q.Get(constants.ParamProfile))
	if err != nil {
		utils.WriteError(w, constants.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	variant, err := client.ParseVariant(q.Get(constants.ParamVariant), h.exchange)
	if err != nil {
		utils.WriteError(w, constants.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := c.Exchange(r.Context(), variant, h.states.Resolve(w, r), cb)
	if err != nil {
		if errors.Is(err, models.ErrInvalidState) {
			logger.Warn("Rejected callback with invalid state")
			utils.WriteError(w, constants.ErrCodeInvalidState, "State does not match the issued value", http.StatusBadRequest)
			return
		}
		logger.Error("Failed to exchange code", zap.String("variant", string(variant)), zap.Error(err))
		utils.WriteError(w, constants.ErrCodeUpstream, "Failed to fetch user info from DingTalk", http.StatusBadGateway)
		return
	}

	utils.WriteJSON(w, info)
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}
