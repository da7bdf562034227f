package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Request-Id"}
)

// CORS applies the origin policy. An empty list or "*" allows every origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:              corsMethods,
		AllowHeaders:              corsHeaders,
		ExposeHeaders:             []string{"X-Request-Id"},
		MaxAge:                    10 * time.Minute,
		OptionsResponseStatusCode: http.StatusOK,
	}
	origins := cleanOrigins(allowedOrigins)
	if allowsAll(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Preflight answers OPTIONS requests the CORS handler let through (those
// without an Origin header) with an empty 200. When every origin is allowed
// it also marks non-browser responses as shareable.
func Preflight(allowedOrigins []string) gin.HandlerFunc {
	open := allowsAll(cleanOrigins(allowedOrigins))
	return func(c *gin.Context) {
		if open && c.GetHeader("Origin") == "" {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", strings.Join(corsMethods, ","))
			c.Header("Access-Control-Allow-Headers", strings.Join(corsHeaders, ","))
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func cleanOrigins(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
