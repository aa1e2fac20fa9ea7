package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
)

type Order struct {
	ID        uuid.UUID
	Items     []LineItem
	Total     Money
	Status    OrderStatus
	CreatedAt time.Time
}

// LineItem captures the unit price at checkout time so later catalog changes
// don't alter historical orders.
type LineItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   Money
}

func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Mul(li.Quantity)
}

// NewOrder snapshots the cart lines into line items and computes the total.
func NewOrder(id uuid.UUID, cart Cart, createdAt time.Time) (Order, error) {
	if cart.IsEmpty() {
		return Order{}, fmt.Errorf("cart is empty: %w", ErrInvalidState)
	}

	items := make([]LineItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, LineItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Item.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}

	total, err := SumLineItems(items)
	if err != nil {
		return Order{}, fmt.Errorf("SumLineItems: %w", err)
	}

	return Order{
		ID:        id,
		Items:     items,
		Total:     total,
		Status:    OrderStatusCompleted,
		CreatedAt: createdAt,
	}, nil
}

func SumLineItems(items []LineItem) (Money, error) {
	total := ZeroMoney()

	for _, li := range items {
		var err error
		total, err = total.Add(li.Subtotal())
		if err != nil {
			return Money{}, err
		}
	}

	return total, nil
}
