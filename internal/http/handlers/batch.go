package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/response"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type BatchHandler struct {
	log     *logger.Logger
	queries services.QueryService
}

func NewBatchHandler(baseLog *logger.Logger, queries services.QueryService) *BatchHandler {
	return &BatchHandler{
		log:     baseLog.With("handler", "BatchHandler"),
		queries: queries,
	}
}

// GET /list
func (h *BatchHandler) List(c *gin.Context) {
	page := intParam(c, "page", 1)
	rpp := intParam(c, "rpp", 100)

	result, err := h.queries.ListBatches(c.Request.Context(), page, rpp)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"num_pages": result.NumPages,
		"batches":   result.Batches,
	})
}

// GET /get/:batch_number
func (h *BatchHandler) Get(c *gin.Context) {
	num, err := strconv.ParseUint(c.Param("batch_number"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("'batch_number' must be an integer"))
		return
	}

	detail, err := h.queries.GetBatch(c.Request.Context(), uint(num))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"batch_number": detail.BatchNumber,
		"timestamp":    detail.Timestamp,
		"user_id":      detail.UserID,
		"annotations":  detail.Annotations,
	})
}

// intParam reads an integer query or form parameter, falling back to def
// when absent or malformed.
func intParam(c *gin.Context, name string, def int) int {
	raw := param(c, name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// boolParam reads a boolean query or form parameter, treating anything
// unparseable (including absence) as false.
func boolParam(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(param(c, name))
	if err != nil {
		return false
	}
	return v
}
