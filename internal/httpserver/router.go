package httpserver

import (
	"context"
	"errors"
	"time"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/metrics"
	addresssvc "bakery-storefront/internal/service/address"
	authsvc "bakery-storefront/internal/service/auth"
	cartsvc "bakery-storefront/internal/service/cart"
	ordersvc "bakery-storefront/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type authService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*authsvc.Session, error)
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	Authenticate(ctx context.Context, raw string) (authsvc.Claims, error)
	Logout(ctx context.Context, c authsvc.Claims) error
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type productService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type cartService interface {
	Get(ctx context.Context, userID string) (cartsvc.View, error)
	AddProduct(ctx context.Context, userID, productID string, qty int) (cartsvc.View, error)
	SetQuantity(ctx context.Context, userID, productID string, qty int) (cartsvc.View, error)
	Remove(ctx context.Context, userID, productID string) (cartsvc.View, error)
	Clear(ctx context.Context, userID string) error
	EndSession(ctx context.Context, userID string) error
}

type addressService interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Add(ctx context.Context, userID string, in addresssvc.Fields) ([]domain.Address, error)
	Update(ctx context.Context, userID, id string, patch addresssvc.Patch) ([]domain.Address, error)
	Remove(ctx context.Context, userID, id string) ([]domain.Address, error)
	SetDefault(ctx context.Context, userID, id string) ([]domain.Address, error)
	Resolve(ctx context.Context, userID, id string) (*domain.Address, error)
}

type orderService interface {
	CreateOrder(ctx context.Context, actorUserID string, in domain.OrderSubmission, idempotencyKey string) (*domain.Order, bool, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	ListOrders(ctx context.Context, p ordersvc.ListParams) (domain.OrderList, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, rawStatus string, notes *string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Summary(ctx context.Context) (domain.OrderSummary, error)
}

type pricingSource interface {
	Pricing() domain.Pricing
}

// Deps carries the services the router dispatches to.
type Deps struct {
	AuthSvc     authService
	ProductSvc  productService
	CartSvc     cartService
	AddressSvc  addressService
	OrderSvc    orderService
	Pricing     pricingSource
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.AuthSvc == nil:
		return errors.New("httpserver: auth service is required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service is required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service is required")
	case d.AddressSvc == nil:
		return errors.New("httpserver: address service is required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service is required")
	case d.Pricing == nil:
		return errors.New("httpserver: pricing source is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	requireAuth := h.authMiddleware()

	api := router.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/settings/pricing", h.getPricing)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", requireAuth, h.logout)
	authGroup.GET("/me", requireAuth, h.me)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items/:productId", h.setCartItem)
	cart.DELETE("/items/:productId", h.removeCartItem)

	addresses := api.Group("/users/addresses", requireAuth)
	addresses.GET("", h.listAddresses)
	addresses.POST("", h.addAddress)
	addresses.PUT("/:addressId", h.updateAddress)
	addresses.DELETE("/:addressId", h.removeAddress)
	addresses.PUT("/:addressId/default", h.setDefaultAddress)

	checkout := api.Group("/checkout", requireAuth)
	checkout.GET("/preview", h.previewCheckout)
	checkout.POST("", h.placeOrder)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", h.createOrder)
	orders.GET("/mine", h.myOrders)

	admin := orders.Group("", requireAdmin())
	admin.GET("", h.listOrders)
	admin.GET("/:id", h.getOrder)
	admin.GET("/stats/summary", h.orderSummary)
	admin.PUT("/:id", h.updateOrderStatus)
	admin.DELETE("/:id", h.deleteOrder)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
