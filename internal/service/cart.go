package service

import (
	"context"
	"fmt"
	"math"

	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/port"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Cart manages the single shared cart. Every mutation runs in a transaction
// holding the cart lock.
type Cart struct {
	store  port.Store
	log    *logrus.Entry
	tracer trace.Tracer
}

func NewCart(store port.Store, log *logrus.Entry) *Cart {
	return &Cart{
		store:  store,
		log:    log.WithField("component", "cart"),
		tracer: otel.Tracer(tracerName),
	}
}

// AddToCart adds quantity units of a catalog product and returns the updated cart.
// Adding a product already in the cart increments its quantity.
func (c *Cart) AddToCart(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	ctx, span := c.tracer.Start(ctx, "Cart.AddToCart", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	if productID <= 0 {
		return domain.Cart{}, fmt.Errorf("product id %d: %w", productID, domain.ErrInvalidArgument)
	}
	if quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("quantity %d must be positive: %w", quantity, domain.ErrInvalidArgument)
	}
	if quantity > math.MaxInt32 {
		return domain.Cart{}, fmt.Errorf("quantity %d exceeds %d: %w", quantity, math.MaxInt32, domain.ErrInvalidArgument)
	}

	var (
		cart  domain.Cart
		total int
	)

	err := c.store.InTx(ctx, func(tx port.Store) error {
		if err := tx.Cart().LockCart(ctx); err != nil {
			return fmt.Errorf("LockCart: %w", err)
		}

		if _, err := tx.Products().GetProduct(ctx, productID); err != nil {
			return fmt.Errorf("GetProduct: %w", err)
		}

		var err error
		total, err = tx.Cart().AddItem(ctx, productID, quantity)
		if err != nil {
			return fmt.Errorf("AddItem: %w", err)
		}

		cart, err = tx.Cart().GetCart(ctx)
		if err != nil {
			return fmt.Errorf("GetCart: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Cart{}, fmt.Errorf("store.InTx: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"product_id": productID,
		"added":      quantity,
		"quantity":   total,
	}).Debug("cart item added")

	return cart, nil
}

func (c *Cart) ViewCart(ctx context.Context) (domain.Cart, error) {
	ctx, span := c.tracer.Start(ctx, "Cart.ViewCart")
	defer span.End()

	cart, err := c.store.Cart().GetCart(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.Cart{}, fmt.Errorf("GetCart: %w", err)
	}

	span.SetAttributes(attribute.Int("cart.count", cart.Count()))
	return cart, nil
}

// RemoveItem drops a product from the cart regardless of its quantity.
func (c *Cart) RemoveItem(ctx context.Context, productID int64) (domain.Cart, error) {
	ctx, span := c.tracer.Start(ctx, "Cart.RemoveItem", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	if productID <= 0 {
		return domain.Cart{}, fmt.Errorf("product id %d: %w", productID, domain.ErrInvalidArgument)
	}

	var cart domain.Cart

	err := c.store.InTx(ctx, func(tx port.Store) error {
		if err := tx.Cart().LockCart(ctx); err != nil {
			return fmt.Errorf("LockCart: %w", err)
		}

		deleted, err := tx.Cart().DeleteItem(ctx, productID)
		if err != nil {
			return fmt.Errorf("DeleteItem: %w", err)
		}
		if !deleted {
			return fmt.Errorf("product %d is not in the cart: %w", productID, domain.ErrNotFound)
		}

		cart, err = tx.Cart().GetCart(ctx)
		if err != nil {
			return fmt.Errorf("GetCart: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Cart{}, fmt.Errorf("store.InTx: %w", err)
	}

	return cart, nil
}
