package middlewares

import (
	"fmt"
	"net/http"

	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit bytes. A declared Content-Length over the limit is
// refused up front; chunked bodies are cut off while being read and surface in BindJSON.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			handlers.RespondError(c, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("Request body must not exceed %d bytes", limit), nil)
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
