package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/response"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type AccountHandler struct {
	log     *logger.Logger
	queries services.QueryService
}

func NewAccountHandler(baseLog *logger.Logger, queries services.QueryService) *AccountHandler {
	return &AccountHandler{
		log:     baseLog.With("handler", "AccountHandler"),
		queries: queries,
	}
}

// GET /accounts
func (h *AccountHandler) List(c *gin.Context) {
	page := intParam(c, "page", 1)
	rpp := intParam(c, "rpp", 1000)

	result, err := h.queries.ListAccounts(c.Request.Context(), page, rpp)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"num_pages": result.NumPages,
		"accounts":  result.Accounts,
	})
}

// GET /account/:address
func (h *AccountHandler) Current(c *gin.Context) {
	annotations, err := h.queries.CurrentAnnotations(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"annotations": annotations})
}

// GET /account_history/:address
func (h *AccountHandler) History(c *gin.Context) {
	history, err := h.queries.AccountHistory(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"annotations": history})
}
