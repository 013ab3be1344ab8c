package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLocations handles the GET /api/locations request.
func (h *Handler) GetLocations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Locations())
}
