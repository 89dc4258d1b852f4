package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/http/response"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
	"github.com/riplabs/annotdb-backend/internal/services"
)

type TemplateHandler struct {
	log       *logger.Logger
	templates services.TemplateService
}

func NewTemplateHandler(baseLog *logger.Logger, templates services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:       baseLog.With("handler", "TemplateHandler"),
		templates: templates,
	}
}

// POST /set_template/:name
func (h *TemplateHandler) Set(c *gin.Context) {
	var entries []services.TemplateEntrySpec
	if err := c.ShouldBindJSON(&entries); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.Validation("invalid JSON data"))
		return
	}

	if err := h.templates.SetTemplate(c.Request.Context(), c.Param("name"), entries); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{})
}

// GET /get_template/:name
func (h *TemplateHandler) Get(c *gin.Context) {
	entries, err := h.templates.GetTemplate(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": entries})
}

// GET /templates
func (h *TemplateHandler) List(c *gin.Context) {
	page := intParam(c, "page", 1)
	rpp := intParam(c, "rpp", 100)

	result, err := h.templates.ListTemplates(c.Request.Context(), page, rpp)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"num_pages": result.NumPages,
		"templates": result.Templates,
	})
}
