package port

import (
	"context"

	"github.com/nikolayk812/ecart-demo/internal/domain"
)

type CartRepository interface {
	// LockCart serializes cart critical sections until the enclosing transaction ends.
	LockCart(ctx context.Context) error
	GetCart(ctx context.Context) (domain.Cart, error)
	// AddItem atomically increments the stored quantity, creating the entry if absent.
	AddItem(ctx context.Context, productID int64, delta int) (int, error)
	DeleteItem(ctx context.Context, productID int64) (bool, error)
	ClearCart(ctx context.Context) error
}
