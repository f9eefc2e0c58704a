package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the common response contract.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Error *Error         `json:"error,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// writeJSON sends a success response.
func writeJSON(c *gin.Context, status int, data any, meta ...map[string]any) {
	c.Header("Cache-Control", "no-store")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// writeError converts err to the common structure.
func writeError(c *gin.Context, err error) {
	apiErr := FromError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(apiErr.Status, Envelope{Error: apiErr})
}
