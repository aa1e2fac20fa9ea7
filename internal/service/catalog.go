package service

import (
	"context"
	"fmt"

	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nikolayk812/ecart-demo/internal/service"

// Catalog serves the read-only product catalog.
type Catalog struct {
	store  port.Store
	tracer trace.Tracer
}

func NewCatalog(store port.Store) *Catalog {
	return &Catalog{
		store:  store,
		tracer: otel.Tracer(tracerName),
	}
}

func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "Catalog.ListProducts")
	defer span.End()

	products, err := c.store.Products().ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ListProducts: %w", err)
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	return products, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "Catalog.GetProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if id <= 0 {
		return domain.Product{}, fmt.Errorf("product id %d: %w", id, domain.ErrInvalidArgument)
	}

	product, err := c.store.Products().GetProduct(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.Product{}, fmt.Errorf("GetProduct: %w", err)
	}

	return product, nil
}
