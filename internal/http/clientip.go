package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// proxyIPHeaders are consulted after X-Forwarded-For, in order.
var proxyIPHeaders = []string{
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Client-IP",
}

// getClientIP extracts the client IP, preferring proxy headers over the
// socket address. The first X-Forwarded-For entry is the original client
// when the site sits behind a reverse proxy.
func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	for _, header := range proxyIPHeaders {
		if value := strings.TrimSpace(c.Get(header)); value != "" {
			return value
		}
	}

	return c.IP()
}
