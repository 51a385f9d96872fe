package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// Policy is a set of allowed origins. An empty policy allows every origin.
type Policy struct {
	origins map[string]struct{}
}

// NewPolicy normalises the configured origins.
func NewPolicy(allowedOrigins []string) Policy {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return Policy{origins: origins}
}

// AllowAll reports whether no origin restriction is configured.
func (p Policy) AllowAll() bool {
	return len(p.origins) == 0
}

// Allowed reports whether origin may call the API. The websocket upgrader shares this check.
func (p Policy) Allowed(origin string) bool {
	if p.AllowAll() {
		return true
	}
	_, ok := p.origins[strings.TrimRight(origin, "/")]
	return ok
}

// New returns a CORS middleware honoring the allowed origins. Credentials are allowed so the
// access_token cookie reaches the doctor endpoints.
func New(allowedOrigins []string) gin.HandlerFunc {
	policy := NewPolicy(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && policy.Allowed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
		case origin == "" && policy.AllowAll():
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Set("Vary", "Origin")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
