package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"custody-ledger-backend/internal/store"
)

type transferRequest struct {
	NewOwner  string `json:"new_owner" binding:"required"`
	StationID int64  `json:"station_id" binding:"required"`
}

// PostTransfer handles the POST /api/items/{item_id}/transfers request.
// The two missing-reference cases get distinct messages so the caller knows
// which id to fix.
func (h *Handler) PostTransfer(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	event, err := h.store.TransferItem(c.Request.Context(), itemID, req.NewOwner, req.StationID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case errors.Is(err, store.ErrStationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to transfer item"})
		}
		return
	}

	// Notify subscribers after the transfer is durably committed.
	if h.pool != nil {
		h.pool.Dispatch(itemID)
	}

	c.JSON(http.StatusCreated, event)
}

// GetStatus handles the GET /api/items/{item_id}/status request.
func (h *Handler) GetStatus(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	status, err := h.store.Status(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to derive status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetHistory handles the GET /api/items/{item_id}/history request.
func (h *Handler) GetHistory(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	history, err := h.store.History(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, history)
}
