package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/response"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type ClientHandler struct {
	log     *logger.Logger
	clients services.ClientService
}

func NewClientHandler(baseLog *logger.Logger, clients services.ClientService) *ClientHandler {
	return &ClientHandler{
		log:     baseLog.With("handler", "ClientHandler"),
		clients: clients,
	}
}

type registerClientRequest struct {
	Name string `json:"name"`
}

// POST /clients
func (h *ClientHandler) Register(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("invalid JSON data"))
		return
	}

	client, err := h.clients.Register(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	// The token is only ever revealed here, at registration time.
	response.RespondOK(c, gin.H{
		"name":       client.Name,
		"auth_token": client.AuthToken,
	})
}

// GET /clients
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	names := make([]string, 0, len(clients))
	for _, client := range clients {
		names = append(names, client.Name)
	}
	response.RespondOK(c, gin.H{"clients": names})
}

// DELETE /clients/:name
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), c.Param("name")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}
