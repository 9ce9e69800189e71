package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getCart возвращает корзину владельца; истёкшая или отсутствующая читается пустой.
func (s *Server) getCart(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	current, err := s.carts.Get(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(current))
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int32  `json:"qty" binding:"required"`
}

// addCartItem добавляет товар в корзину или наращивает количество существующей позиции.
func (s *Server) addCartItem(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	current, err := s.carts.AddItem(c.Request.Context(), owner, req.ProductID, req.Qty)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(current))
}

type setQuantityRequest struct {
	Qty int32 `json:"qty"`
}

// setCartItemQuantity выставляет количество позиции; ноль удаляет позицию.
func (s *Server) setCartItemQuantity(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	current, err := s.carts.SetQuantity(c.Request.Context(), owner, c.Param("product_id"), req.Qty)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(current))
}

// removeCartItem удаляет позицию из корзины.
func (s *Server) removeCartItem(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	current, err := s.carts.RemoveItem(c.Request.Context(), owner, c.Param("product_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(current))
}

// clearCart опустошает корзину владельца.
func (s *Server) clearCart(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	if err := s.carts.Clear(c.Request.Context(), owner); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type mergeCartRequest struct {
	GuestOwnerKey string `json:"guest_owner_key" binding:"required"`
}

// mergeCart вливает гостевую корзину в корзину авторизованного владельца.
// При совпадении позиций берётся максимум количеств.
func (s *Server) mergeCart(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	merged, err := s.carts.AdoptMerged(c.Request.Context(), owner, req.GuestOwnerKey)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(merged))
}

// validateCart сверяет корзину с текущим стоком и возвращает скорректированную
// корзину вместе с предупреждениями. Состояние корзины не мутируется.
func (s *Server) validateCart(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	current, err := s.carts.Get(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	adjusted, warnings, err := s.validator.Validate(c.Request.Context(), current)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":     toCartResponse(adjusted),
		"warnings": toWarningResponses(warnings),
	})
}

// cartTotals считает стоимость корзины с опциональным кодом скидки.
func (s *Server) cartTotals(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	current, err := s.carts.Get(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	totals, err := s.pricing.ComputeTotals(current.Lines, c.Query("discount"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTotalsResponse(totals))
}
