package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"custody-ledger-backend/internal/store"
)

// PostScan handles the POST /api/scan request: a multipart "image" upload
// is handed to the scanner, and a decoded identifier is looked up against
// the identity store. Decoding touches no ledger state.
func (h *Handler) PostScan(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	itemID, found, err := h.scanner.Lookup(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no identifier recognized"})
		return
	}

	if _, err := h.store.GetItem(c.Request.Context(), itemID); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to look up item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item_id": itemID})
}
