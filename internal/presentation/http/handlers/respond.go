// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP status codes. A cache miss
// means the tenant has not logged in yet, so it maps to 503 rather
// than 500.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, manager.ErrCacheNotLoaded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache not loaded, log in first"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// parseIntCSV parses comma-separated integers, skipping blank segments.
func parseIntCSV(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// daterangeParam widens a decoded {start_date, end_date, start_time?,
// end_time?} map to the shape the filter engine accepts.
func daterangeParam(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
