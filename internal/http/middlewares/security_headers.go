package middlewares

import "github.com/gin-gonic/gin"

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// the Swagger UI page loads its bundle from unpkg and bootstraps with an inline script
	docsCSP = "default-src 'self'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; " +
		"img-src 'self' data: https:; font-src 'self' data: https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

// SecurityHeaders sets the hardening headers every response carries. docsPath gets the looser
// content security policy the API explorer needs.
func SecurityHeaders(docsPath string) gin.HandlerFunc {
	static := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Permissions-Policy":           "camera=(), microphone=(), geolocation=()",
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range static {
			h.Set(k, v)
		}

		csp := apiCSP
		if c.Request.URL.Path == docsPath {
			csp = docsCSP
		}
		h.Set("Content-Security-Policy", csp)

		c.Next()
	}
}
