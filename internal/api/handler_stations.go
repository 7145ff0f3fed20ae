package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"custody-ledger-backend/internal/store"
)

type addStationRequest struct {
	StationID int64  `json:"station_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// PostStation handles the POST /api/stations request.
func (h *Handler) PostStation(c *gin.Context) {
	var req addStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.AddStation(c.Request.Context(), req.StationID, req.Name); err != nil {
		if errors.Is(err, store.ErrStationExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "station id already exists"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to add station"})
		return
	}

	c.Status(http.StatusCreated)
}

// GetStations handles the GET /api/stations request.
func GetStations(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stations, err := s.ListStations(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve stations"})
			return
		}
		c.JSON(http.StatusOK, stations)
	}
}
