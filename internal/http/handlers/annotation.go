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

type AnnotationHandler struct {
	log         *logger.Logger
	annotations services.AnnotationService
}

func NewAnnotationHandler(baseLog *logger.Logger, annotations services.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{
		log:         baseLog.With("handler", "AnnotationHandler"),
		annotations: annotations,
	}
}

type addBatchRequest struct {
	UserID      string                `json:"user_id"`
	Annotations []services.BatchEntry `json:"annotations"`
}

// POST /add
func (h *AnnotationHandler) Add(c *gin.Context) {
	var req addBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("invalid JSON data"))
		return
	}

	batchNum, err := h.annotations.AddBatch(c.Request.Context(), req.UserID, req.Annotations)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batch_num": batchNum})
}

// GET|POST /hide
//
// Parameters arrive as query or form values: user_id and batch_num are
// required, account and annotation narrow the hide to one account and/or one
// annotation key.
func (h *AnnotationHandler) Hide(c *gin.Context) {
	userID := param(c, "user_id")
	if userID == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("missing required 'user_id' parameter"))
		return
	}
	batchRaw := param(c, "batch_num")
	if batchRaw == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("missing required 'batch_num' parameter"))
		return
	}
	batchNum, err := strconv.ParseUint(batchRaw, 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("'batch_num' must be an integer"))
		return
	}

	var account, annotationKey *string
	if v := param(c, "account"); v != "" {
		account = &v
	}
	if v := param(c, "annotation"); v != "" {
		annotationKey = &v
	}

	if err := h.annotations.Hide(c.Request.Context(), userID, uint(batchNum), account, annotationKey); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}

// param reads a request parameter from the query string or posted form.
func param(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}
