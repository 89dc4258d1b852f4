package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/response"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type SearchHandler struct {
	log    *logger.Logger
	search services.SearchService
}

func NewSearchHandler(baseLog *logger.Logger, search services.SearchService) *SearchHandler {
	return &SearchHandler{
		log:    baseLog.With("handler", "SearchHandler"),
		search: search,
	}
}

// GET|POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	query := param(c, "query")
	if query == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("missing required 'query' parameter"))
		return
	}
	page := intParam(c, "page", 1)
	rpp := intParam(c, "rpp", 1000)
	totalsOnly := boolParam(c, "totals_only")

	result, err := h.search.Search(c.Request.Context(), query, page, rpp, totalsOnly)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if totalsOnly {
		response.RespondOK(c, gin.H{"num_matches": result.NumMatches})
		return
	}
	response.RespondOK(c, gin.H{
		"num_matches": result.NumMatches,
		"num_pages":   result.NumPages,
		"accounts":    result.Accounts,
	})
}

type criteriaRequest struct {
	Criteria []services.Criterion `json:"criteria"`
}

// POST /search/criteria
func (h *SearchHandler) SearchCriteria(c *gin.Context) {
	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("invalid JSON data"))
		return
	}

	accounts, err := h.search.SearchCriteria(c.Request.Context(), req.Criteria)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"accounts": accounts})
}

// GET /search/download
//
// Streams the full result set as a CSV attachment. Query errors are still
// reported as JSON since nothing has been written by then.
func (h *SearchHandler) Download(c *gin.Context) {
	query := param(c, "query")
	if query == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("missing required 'query' parameter"))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="accounts.csv"`)
	if err := h.search.WriteResultsCSV(c.Request.Context(), query, c.Writer); err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && !c.Writer.Written() {
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", "")
			response.RespondError(c, apiErr.Status, apiErr)
			return
		}
		h.log.Error("csv download failed", "query", query, "error", err)
		c.Abort()
	}
}
