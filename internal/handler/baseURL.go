package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BaseURL returns configured if set and otherwise the scheme and host the request was made to.
func BaseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimSuffix(configured, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
