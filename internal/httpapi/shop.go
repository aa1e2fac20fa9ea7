package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/ecart-demo/internal/domain"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

const idempotencyKeyHeader = "Idempotency-Key"

func (h *handlers) listProducts(c echo.Context) error {
	products, err := h.Catalog.ListProducts(c.Request().Context())
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, toProductListView(products))
}

func (h *handlers) getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	p, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, toProductView(p))
}

func (h *handlers) addToCart(c echo.Context) error {
	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", err.Error())
	}

	cart, err := h.Cart.AddToCart(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		return h.failErr(c, err)
	}
	return h.renderCart(c, cart)
}

func (h *handlers) viewCart(c echo.Context) error {
	cart, err := h.Cart.ViewCart(c.Request().Context())
	if err != nil {
		return h.failErr(c, err)
	}
	return h.renderCart(c, cart)
}

func (h *handlers) removeCartItem(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	cart, err := h.Cart.RemoveItem(c.Request().Context(), productID)
	if err != nil {
		return h.failErr(c, err)
	}
	return h.renderCart(c, cart)
}

func (h *handlers) checkout(c echo.Context) error {
	key := strings.TrimSpace(c.Request().Header.Get(idempotencyKeyHeader))
	if len(key) > 255 {
		return fail(c, http.StatusBadRequest, "INVALID_ARGUMENT", "Idempotency-Key is longer than 255 characters", nil)
	}

	order, err := h.Checkout.Checkout(c.Request().Context(), key)
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, toOrderView(order))
}

func (h *handlers) listOrders(c echo.Context) error {
	orders, err := h.Checkout.ListOrders(c.Request().Context())
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, toOrderListView(orders))
}

func (h *handlers) getOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	order, err := h.Checkout.GetOrder(c.Request().Context(), id)
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, toOrderView(order))
}

func (h *handlers) renderCart(c echo.Context, cart domain.Cart) error {
	view, err := toCartView(cart)
	if err != nil {
		return h.failErr(c, err)
	}
	return ok(c, view)
}

// failErr logs server-side failures before rendering them.
func (h *handlers) failErr(c echo.Context, err error) error {
	h.log.WithError(err).
		WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Debug("request error")
	return failErr(c, err)
}
