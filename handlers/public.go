package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "DropLine API"

	backendRunning     = "✅ Running"
	databaseConnected  = "✅ Connected"
	databaseNotAvail   = "❌ Not Available"
	databaseErrorLabel = "⚠️  Error: "

	// errorDetailLimit bounds the error text echoed by the diagnostics endpoint
	errorDetailLimit = 60
)

// Root identifies the service
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":   serviceName,
		"status": "ok",
	})
}

// TestDatabase reports backend liveness and database connectivity. Database
// errors are reported in the body; the request itself always succeeds.
func (h *Handler) TestDatabase(c *gin.Context) {
	resp := gin.H{
		"backend":  backendRunning,
		"database": databaseNotAvail,
	}

	if h.store.Available() {
		resp["database"] = databaseConnected

		ctx, cancel := h.dbContext(c)
		defer cancel()

		names, err := h.store.ListCollections(ctx)
		if err != nil {
			_ = c.Error(err)
			resp["database"] = databaseErrorLabel + truncate(err.Error(), errorDetailLimit)
		} else {
			if names == nil {
				names = []string{}
			}
			resp["collections"] = names
		}
	}

	c.JSON(http.StatusOK, resp)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
