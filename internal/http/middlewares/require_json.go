package middlewares

import (
	"mime"
	"net/http"

	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects writes whose body is not declared as application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			handlers.RespondError(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
				"Content-Type must be application/json", nil)
			return
		}

		c.Next()
	}
}
