package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
)

// RespondOK writes a success envelope. Extra payload fields are merged next
// to the "success" flag so responses look like {"success": true, ...}.
func RespondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondError writes a failure envelope with the given status.
func RespondError(c *gin.Context, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// RespondAPIError maps a service error onto the wire: structured api errors
// carry their own status; anything else is an internal error.
func RespondAPIError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae)
		return
	}
	RespondError(c, http.StatusInternalServerError, err)
}
