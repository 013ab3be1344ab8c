package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetFeedStatus handles the GET /api/feed/status request. The UI renders the
// returned state as a live/offline badge.
func (h *Handler) GetFeedStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.feed.ConnectionState()})
}
