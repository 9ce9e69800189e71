package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type checkoutRequest struct {
	CustomerID        string `json:"customer_id"`
	DiscountCode      string `json:"discount_code"`
	AcceptAdjustments bool   `json:"accept_adjustments"`
}

// checkout запускает конвейер оформления заказа. Если валидатор скорректировал
// корзину и подтверждения нет, возвращается 409 с предупреждениями и
// клиент должен повторить запрос с accept_adjustments=true.
func (s *Server) checkout(c *gin.Context) {
	owner, ok := s.ownerKey(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.committer.Commit(c.Request.Context(), checkout.Request{
		OwnerKey:          owner,
		CustomerID:        req.CustomerID,
		DiscountCode:      req.DiscountCode,
		AcceptAdjustments: req.AcceptAdjustments,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidationRequired) {
			c.JSON(http.StatusConflict, gin.H{
				"error":    err.Error(),
				"warnings": toWarningResponses(result.Warnings),
			})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sale":     toSaleResponse(result.Sale),
		"warnings": toWarningResponses(result.Warnings),
	})
}

// getSale возвращает продажу по идентификатору.
func (s *Server) getSale(c *gin.Context) {
	sale, err := s.sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleResponse(sale))
}

// listSales возвращает продажи покупателя, новые первыми.
func (s *Server) listSales(c *gin.Context) {
	customerID := c.Query("customer_id")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing customer_id query parameter"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit query parameter"})
			return
		}
		limit = parsed
	}
	sales, err := s.sales.ListByCustomer(c.Request.Context(), customerID, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]saleResponse, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleResponse(sale))
	}
	c.JSON(http.StatusOK, gin.H{"sales": out})
}

// stats возвращает сводку по всем продажам.
func (s *Server) stats(c *gin.Context) {
	revenue, count, err := s.sales.TotalRevenue(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_revenue": revenue,
		"sale_count":    count,
	})
}
