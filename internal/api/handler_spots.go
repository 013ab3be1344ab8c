package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/feed"
	"parking-status-backend/internal/model"
)

// spotResponse is a registry spot with the optional live-feed overlay.
type spotResponse struct {
	model.Spot
	LiveStatus feed.LiveStatus `json:"liveStatus,omitempty"`
}

type spotsResponse struct {
	LocationID string         `json:"locationId"`
	Live       bool           `json:"live"`
	FeedState  feed.ConnState `json:"feedState,omitempty"`
	Spots      []spotResponse `json:"spots"`
}

// GetSpots handles the GET /api/locations/{location_id}/spots request. For
// the live-enabled location each stall carries the detector's status and the
// response carries the feed connection state; every other location renders
// purely from the registry's taken flags. An unknown location yields an
// empty grid, not an error.
func (h *Handler) GetSpots(c *gin.Context) {
	locationID := c.Param("location_id")
	stalls := h.store.GetSpots(locationID)

	resp := spotsResponse{
		LocationID: locationID,
		Spots:      make([]spotResponse, len(stalls)),
	}
	for i, spot := range stalls {
		resp.Spots[i] = spotResponse{Spot: spot}
	}

	if h.feed != nil && h.feed.IsLive(locationID) {
		resp.Live = true
		resp.FeedState = h.feed.ConnectionState()
		snapshot := h.feed.Snapshot()
		for i := range resp.Spots {
			if status, ok := snapshot[resp.Spots[i].ID]; ok {
				resp.Spots[i].LiveStatus = status
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

type setSpotRequest struct {
	Taken *bool `json:"taken" binding:"required"`
}

// SetSpotTaken handles the PATCH /api/locations/{location_id}/spots/{spot_id}
// request from the operator dashboard. Unknown identifiers are a no-op.
// Freeing a stall dispatches availability notifications for the location.
func (h *Handler) SetSpotTaken(c *gin.Context) {
	var req setSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	locationID := c.Param("location_id")
	changed := h.store.SetSpotTaken(locationID, c.Param("spot_id"), *req.Taken)
	if changed && !*req.Taken && h.pool != nil {
		h.pool.Dispatch(locationID)
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
