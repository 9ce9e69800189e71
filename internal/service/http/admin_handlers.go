package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// listNotifications возвращает операционную ленту, новые события первыми.
func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": toNotificationResponses(s.feed.List())})
}

// acknowledgeNotification подтверждает событие ленты. Подтверждение low-stock
// события снова разрешает генерацию следующего.
func (s *Server) acknowledgeNotification(c *gin.Context) {
	id := c.Param("id")
	if !s.feed.Acknowledge(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": id})
}

// getProduct возвращает карточку товара из каталога.
func (s *Server) getProduct(c *gin.Context) {
	product, err := s.catalog.Get(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    product.ID,
		"name":  product.Name,
		"price": product.Price,
	})
}

// getStock возвращает доступный остаток товара.
func (s *Server) getStock(c *gin.Context) {
	productID := c.Param("product_id")
	available, err := s.ledger.GetAvailable(c.Request.Context(), productID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockResponse{ProductID: productID, Available: available})
}

type setStockRequest struct {
	Qty int32 `json:"qty"`
}

// setStock задаёт текущий остаток товара и публикует событие в ленту:
// entity_created для нового товара, entity_updated для существующего.
func (s *Server) setStock(c *gin.Context) {
	productID := c.Param("product_id")
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	_, lookupErr := s.ledger.GetAvailable(c.Request.Context(), productID)
	existed := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, domain.ErrProductNotFound) {
		s.writeError(c, lookupErr)
		return
	}

	if err := s.ledger.SetStock(c.Request.Context(), productID, req.Qty); err != nil {
		s.writeError(c, err)
		return
	}

	if s.feed != nil {
		kind := domain.NotificationKindEntityCreated
		verb := "created"
		if existed {
			kind = domain.NotificationKindEntityUpdated
			verb = "updated"
		}
		s.feed.Append(domain.NotificationEvent{
			Category: domain.NotificationCategoryInventory,
			Severity: domain.NotificationSeverityInfo,
			Kind:     kind,
			Message:  fmt.Sprintf("stock for product %s %s: %d unit(s)", productID, verb, req.Qty),
		})
	}

	available, err := s.ledger.GetAvailable(c.Request.Context(), productID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockResponse{ProductID: productID, Available: available})
}
