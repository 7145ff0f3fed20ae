package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"custody-ledger-backend/internal/model"
	"custody-ledger-backend/internal/store"
)

type addItemRequest struct {
	ItemID       int64   `json:"item_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Owner        string  `json:"owner" binding:"required"`
	Weight       float64 `json:"weight"`
	Description  string  `json:"description"`
	SerialNumber string  `json:"serial_number"`
	ModelNumber  string  `json:"model_number"`
	Manufacturer string  `json:"manufacturer"`
	PurchaseDate string  `json:"purchase_date"`
	WarrantyInfo string  `json:"warranty_info"`
}

// PostItem handles the POST /api/items request. The item and its genesis
// custody event are created together; a duplicate id is rejected without
// touching the existing item.
func (h *Handler) PostItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item := model.Item{
		ID:           req.ItemID,
		Name:         req.Name,
		Weight:       req.Weight,
		Description:  req.Description,
		SerialNumber: req.SerialNumber,
		ModelNumber:  req.ModelNumber,
		Manufacturer: req.Manufacturer,
		PurchaseDate: req.PurchaseDate,
		WarrantyInfo: req.WarrantyInfo,
	}

	if err := h.store.CreateItem(c.Request.Context(), item, req.Owner); err != nil {
		if errors.Is(err, store.ErrItemExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "item id already exists"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to add item"})
		return
	}

	c.Status(http.StatusCreated)
}

// GetItems handles the GET /api/items request.
func GetItems(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.ListItems(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve items"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GetItem handles the GET /api/items/{item_id} request.
func (h *Handler) GetItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := h.store.GetItem(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// itemIDParam parses the item_id path parameter, writing a 400 on failure.
func itemIDParam(c *gin.Context) (int64, bool) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return 0, false
	}
	return itemID, true
}
