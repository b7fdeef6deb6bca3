package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientConfig is what a browser client needs to locate the API.
type ClientConfig struct {
	APIBaseURL  string `json:"apiBaseUrl"`
	FrontendURL string `json:"frontendUrl"`
}

// ConfigHandler exposes client configuration.
type ConfigHandler struct {
	cfg ClientConfig
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(apiBaseURL, frontendURL string) *ConfigHandler {
	return &ConfigHandler{cfg: ClientConfig{
		APIBaseURL:  strings.TrimRight(apiBaseURL, "/"),
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}}
}

// Get handles GET /api/v1/client-config
// @Summary Client configuration
// @Tags config
// @Produce json
// @Success 200 {object} Response{data=ClientConfig} "Client configuration"
// @Router /client-config [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	RespondOK(c, "Client configuration", h.cfg)
}
