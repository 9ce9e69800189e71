package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/notify"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

// ownerKeyHeader идентифицирует владельца корзины: гостевой ключ или
// идентификатор покупателя после входа.
const ownerKeyHeader = "X-Owner-Key"

// Server собирает HTTP-обвязку витрины поверх доменных сервисов.
type Server struct {
	carts     *cart.Service
	validator *cart.Validator
	pricing   *pricing.Engine
	committer *checkout.Committer
	ledger    domain.StockLedger
	catalog   domain.ProductCatalog
	sales     domain.SaleRepository
	feed      *notify.Feed
	logger    *log.Entry
}

// ServerOption настраивает Server.
type ServerOption func(*Server)

// WithLogger задаёт logger для HTTP-слоя.
func WithLogger(logger *log.Entry) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer создаёт HTTP-слой витрины.
func NewServer(
	carts *cart.Service,
	validator *cart.Validator,
	pricingEngine *pricing.Engine,
	committer *checkout.Committer,
	ledger domain.StockLedger,
	catalog domain.ProductCatalog,
	sales domain.SaleRepository,
	feed *notify.Feed,
	options ...ServerOption,
) *Server {
	s := &Server{
		carts:     carts,
		validator: validator,
		pricing:   pricingEngine,
		committer: committer,
		ledger:    ledger,
		catalog:   catalog,
		sales:     sales,
		feed:      feed,
		logger:    log.WithField("component", "http-server"),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Router строит gin-маршрутизатор со всеми публичными ручками.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/cart", s.getCart)
		api.POST("/cart/items", s.addCartItem)
		api.PUT("/cart/items/:product_id", s.setCartItemQuantity)
		api.DELETE("/cart/items/:product_id", s.removeCartItem)
		api.DELETE("/cart", s.clearCart)
		api.POST("/cart/merge", s.mergeCart)
		api.POST("/cart/validate", s.validateCart)
		api.GET("/cart/totals", s.cartTotals)

		api.POST("/checkout", s.checkout)

		api.GET("/notifications", s.listNotifications)
		api.POST("/notifications/:id/ack", s.acknowledgeNotification)

		api.GET("/products/:product_id", s.getProduct)

		api.GET("/stock/:product_id", s.getStock)
		api.PUT("/stock/:product_id", s.setStock)

		api.GET("/sales/:id", s.getSale)
		api.GET("/sales", s.listSales)
		api.GET("/stats", s.stats)
	}

	return router
}

// ownerKey достаёт ключ владельца корзины; без него корзинные ручки не работают.
func (s *Server) ownerKey(c *gin.Context) (string, bool) {
	owner := c.GetHeader(ownerKeyHeader)
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + ownerKeyHeader + " header"})
		return "", false
	}
	return owner, true
}

// writeError переводит доменные ошибки в HTTP-статусы.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrSaleNotFound),
		errors.Is(err, domain.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrDiscountNotFound),
		errors.Is(err, domain.ErrDiscountMinimumNotMet),
		errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.WithError(err).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
