package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/store"
)

type createSessionRequest struct {
	LocationID      string `json:"location_id" binding:"required"`
	SpotID          string `json:"spot_id" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,gt=0"`
}

// CreateSession handles the POST /api/sessions booking request.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.store.CreateSession(req.LocationID, req.SpotID, req.DurationMinutes, time.Now().UTC())
	switch {
	case errors.Is(err, store.ErrSpotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "spot is already taken"})
		return
	case errors.Is(err, store.ErrUnknownLocation), errors.Is(err, store.ErrUnknownSpot):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// GetSessions handles the GET /api/sessions request, most recent first.
func (h *Handler) GetSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Sessions(time.Now().UTC()))
}

// GetActiveSession handles the GET /api/sessions/active request for the
// quick-glance card on the home screen.
func (h *Handler) GetActiveSession(c *gin.Context) {
	sess, ok := h.store.ActiveSession(time.Now().UTC())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GetRemainingTime handles the GET /api/sessions/{session_id}/remaining
// request. Countdown displays poll this at one-second cadence and render an
// expired state once the body carries "expired": true.
func (h *Handler) GetRemainingTime(c *gin.Context) {
	sessionID := c.Param("session_id")
	now := time.Now().UTC()

	if _, ok := h.store.Session(sessionID, now); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	remaining := h.store.RemainingTime(sessionID, now)
	if remaining == nil {
		c.JSON(http.StatusOK, gin.H{"expired": true})
		return
	}
	c.JSON(http.StatusOK, remaining)
}
