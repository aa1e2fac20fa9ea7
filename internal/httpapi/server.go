// Package httpapi exposes the shop over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/dbconn"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

type CartService interface {
	AddToCart(ctx context.Context, productID int64, quantity int) (domain.Cart, error)
	ViewCart(ctx context.Context) (domain.Cart, error)
	RemoveItem(ctx context.Context, productID int64) (domain.Cart, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, idempotencyKey string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
}

// Database is the connection manager as seen by the probes.
type Database interface {
	State() domain.ConnState
	Ping(ctx context.Context) error
	Identity() dbconn.Identity
	ServerVersion(ctx context.Context) (string, error)
}

type Deps struct {
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Database Database
	Instance config.InstanceConfig
	Log      *logrus.Entry
}

type handlers struct {
	Deps
	log *logrus.Entry
}

// New builds the router with all routes and middleware installed.
func New(deps Deps) *echo.Echo {
	h := &handlers{
		Deps: deps,
		log:  deps.Log.WithField("component", "httpapi"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware("ecart")))
	e.Use(requestLogger(h.log))

	e.GET("/health", h.health)
	e.GET("/ready", h.ready)
	e.GET("/arch", h.arch)

	e.GET("/products", h.listProducts)
	e.GET("/products/:id", h.getProduct)

	e.POST("/cart/add", h.addToCart)
	e.GET("/cart", h.viewCart)
	e.DELETE("/cart/items/:productId", h.removeCartItem)

	e.POST("/checkout", h.checkout)
	e.GET("/orders", h.listOrders)
	e.GET("/orders/:id", h.getOrder)

	return e
}

// errorHandler renders errors escaping handlers, mostly echo's own routing errors.
func (h *handlers) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = failErr(c, err)
		return
	}

	code := "INTERNAL"
	switch he.Code {
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		code = "INVALID_REQUEST"
	}

	if ferr := fail(c, he.Code, code, fmt.Sprint(he.Message), nil); ferr != nil {
		h.log.WithError(ferr).Error("write error response")
	}
}
