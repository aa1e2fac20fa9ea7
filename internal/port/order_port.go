package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ecart-demo/internal/domain"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order, idempotencyKey string) error
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}
