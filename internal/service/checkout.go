package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/port"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const retryGuidance = "the order may have been placed; check GET /orders/%s or retry the checkout with the same Idempotency-Key header"

type CheckoutOption func(*Checkout)

// WithReconcileBackOff sets the policy used to re-read an order whose commit outcome is unknown.
func WithReconcileBackOff(newBackOff func() backoff.BackOff) CheckoutOption {
	return func(c *Checkout) {
		c.newBackOff = newBackOff
	}
}

// WithClock overrides the order timestamp source.
func WithClock(now func() time.Time) CheckoutOption {
	return func(c *Checkout) {
		c.now = now
	}
}

// Checkout converts the cart into an order and serves order history.
type Checkout struct {
	store  port.Store
	log    *logrus.Entry
	tracer trace.Tracer

	newBackOff func() backoff.BackOff
	now        func() time.Time
}

func NewCheckout(store port.Store, log *logrus.Entry, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		store:      store,
		log:        log.WithField("component", "checkout"),
		tracer:     otel.Tracer(tracerName),
		newBackOff: defaultReconcileBackOff,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func defaultReconcileBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 3 * time.Second
	return b
}

// Checkout places an order for the current cart contents and clears the cart, atomically.
// A non-empty idempotencyKey that already produced an order returns that order unchanged.
func (c *Checkout) Checkout(ctx context.Context, idempotencyKey string) (domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "Checkout.Checkout")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Order{}, fmt.Errorf("uuid.NewV7: %w", err)
	}

	var (
		order    domain.Order
		replayed bool
	)

	err = c.store.InTx(ctx, func(tx port.Store) error {
		if err := tx.Cart().LockCart(ctx); err != nil {
			return fmt.Errorf("LockCart: %w", err)
		}

		if idempotencyKey != "" {
			existing, err := tx.Orders().GetOrderByIdempotencyKey(ctx, idempotencyKey)
			switch {
			case err == nil:
				order, replayed = existing, true
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("GetOrderByIdempotencyKey: %w", err)
			}
		}

		cart, err := tx.Cart().GetCart(ctx)
		if err != nil {
			return fmt.Errorf("GetCart: %w", err)
		}

		order, err = domain.NewOrder(id, cart, c.now())
		if err != nil {
			return fmt.Errorf("domain.NewOrder: %w", err)
		}

		if err := tx.Orders().CreateOrder(ctx, order, idempotencyKey); err != nil {
			return fmt.Errorf("CreateOrder: %w", err)
		}

		if err := tx.Cart().ClearCart(ctx); err != nil {
			return fmt.Errorf("ClearCart: %w", err)
		}

		return nil
	})

	switch {
	case errors.Is(err, domain.ErrCommitUnknown):
		span.RecordError(err)
		return c.reconcile(ctx, order, err)
	case err != nil:
		span.RecordError(err)
		return domain.Order{}, fmt.Errorf("store.InTx: %w", err)
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Bool("order.replayed", replayed),
	)

	log := c.log.WithField("order_id", order.ID).WithField("total", order.Total.String())
	if replayed {
		log.Info("checkout replayed by idempotency key")
	} else {
		log.WithField("items", len(order.Items)).Info("order placed")
	}

	return order, nil
}

// reconcile resolves a checkout whose commit outcome was not observed by reading the order back.
func (c *Checkout) reconcile(ctx context.Context, order domain.Order, commitErr error) (domain.Order, error) {
	log := c.log.WithField("order_id", order.ID)
	log.WithError(commitErr).Warn("checkout commit outcome unknown, reconciling")

	var stored domain.Order

	operation := func() error {
		var err error
		stored, err = c.store.Orders().GetOrder(ctx, order.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx))
	switch {
	case err == nil:
		log.Info("checkout commit confirmed")
		return stored, nil
	case errors.Is(err, domain.ErrNotFound):
		log.Info("checkout commit confirmed absent")
		return domain.Order{}, fmt.Errorf("checkout was not recorded: %w", errors.Join(domain.ErrDataUnavailable, commitErr))
	}

	log.WithError(err).Error("checkout outcome could not be reconciled")

	return domain.Order{}, &domain.PartialFailureError{
		OrderID:      order.ID,
		ClearOutcome: domain.ClearOutcomeUnknown,
		Guidance:     fmt.Sprintf(retryGuidance, order.ID),
		Err:          commitErr,
	}
}

// ListOrders returns all orders, newest first.
func (c *Checkout) ListOrders(ctx context.Context) ([]domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "Checkout.ListOrders")
	defer span.End()

	orders, err := c.store.Orders().ListOrders(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ListOrders: %w", err)
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (c *Checkout) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "Checkout.GetOrder", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := c.store.Orders().GetOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.Order{}, fmt.Errorf("GetOrder: %w", err)
	}

	return order, nil
}
