package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nikolayk812/ecart-demo/internal/db"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	s *store
}

// CreateOrder inserts the order and its line items atomically. An empty
// idempotencyKey stores no key.
func (r *orderRepository) CreateOrder(ctx context.Context, order domain.Order, idempotencyKey string) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("order has no items: %w", domain.ErrInvalidState)
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 || item.Quantity > math.MaxInt32 {
			return fmt.Errorf("product[%d] quantity %d is out of range: %w", item.ProductID, item.Quantity, domain.ErrInvalidState)
		}
	}

	_, err := withTx(ctx, r.s, func(tx *store) (struct{}, error) {
		q, qctx, cancel, err := tx.queries(ctx)
		if err != nil {
			return struct{}{}, err
		}
		defer cancel()

		err = q.CreateOrder(qctx, db.CreateOrderParams{
			ID:             order.ID,
			TotalAmount:    order.Total.Amount,
			TotalCurrency:  order.Total.Currency.String(),
			Status:         string(order.Status),
			IdempotencyKey: pgtype.Text{String: idempotencyKey, Valid: idempotencyKey != ""},
			CreatedAt:      order.CreatedAt,
		})
		if isUniqueViolation(err) {
			return struct{}{}, fmt.Errorf("order %s or its idempotency key already exists: %w", order.ID, domain.ErrInvalidState)
		}
		if isOutOfRange(err) {
			return struct{}{}, fmt.Errorf("order %s total %s is out of range: %w", order.ID, order.Total, domain.ErrInvalidState)
		}
		if err != nil {
			return struct{}{}, fmt.Errorf("q.CreateOrder: %w", tx.classify(err))
		}

		for i, item := range order.Items {
			err := q.CreateOrderItem(qctx, db.CreateOrderItemParams{
				OrderID:           order.ID,
				LineNo:            int32(i + 1),
				ProductID:         item.ProductID,
				ProductName:       item.ProductName,
				Quantity:          int32(item.Quantity),
				UnitPriceAmount:   item.UnitPrice.Amount,
				UnitPriceCurrency: item.UnitPrice.Currency.String(),
			})
			if isOutOfRange(err) {
				return struct{}{}, fmt.Errorf("order %s line %d is out of range: %w", order.ID, i+1, domain.ErrInvalidState)
			}
			if err != nil {
				return struct{}{}, fmt.Errorf("q.CreateOrderItem: %w", tx.classify(err))
			}
		}

		return struct{}{}, nil
	})

	return err
}

func (r *orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer cancel()

	row, err := q.GetOrder(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order[%s]: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrder: %w", r.s.classify(err))
	}

	orders, err := r.withItems(ctx, q, []orderHeader{orderHeader(row)})
	if err != nil {
		return domain.Order{}, err
	}

	return orders[0], nil
}

func (r *orderRepository) GetOrderByIdempotencyKey(ctx context.Context, key string) (domain.Order, error) {
	if key == "" {
		return domain.Order{}, fmt.Errorf("idempotency key is empty: %w", domain.ErrInvalidArgument)
	}

	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer cancel()

	row, err := q.GetOrderByIdempotencyKey(ctx, pgtype.Text{String: key, Valid: true})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order with idempotency key[%s]: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("q.GetOrderByIdempotencyKey: %w", r.s.classify(err))
	}

	orders, err := r.withItems(ctx, q, []orderHeader{orderHeader(row)})
	if err != nil {
		return domain.Order{}, err
	}

	return orders[0], nil
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rows, err := q.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("q.ListOrders: %w", r.s.classify(err))
	}

	headers := make([]orderHeader, 0, len(rows))
	for _, row := range rows {
		headers = append(headers, orderHeader(row))
	}

	return r.withItems(ctx, q, headers)
}

// orderHeader is the common shape of the order-only query rows.
type orderHeader db.GetOrderRow

func (r *orderRepository) withItems(ctx context.Context, q *db.Queries, headers []orderHeader) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(headers))
	if len(headers) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}

	itemRows, err := q.ListOrderItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.ListOrderItems: %w", r.s.classify(err))
	}

	itemsByOrder := make(map[uuid.UUID][]domain.LineItem, len(headers))
	for _, row := range itemRows {
		item, err := mapOrderItemToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapOrderItemToDomain: %w", err)
		}
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], item)
	}

	for _, h := range headers {
		parsedCurrency, err := currency.ParseISO(h.TotalCurrency)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", h.TotalCurrency, err)
		}

		orders = append(orders, domain.Order{
			ID:        h.ID,
			Items:     itemsByOrder[h.ID],
			Total:     domain.Money{Amount: h.TotalAmount, Currency: parsedCurrency},
			Status:    domain.OrderStatus(h.Status),
			CreatedAt: h.CreatedAt,
		})
	}

	return orders, nil
}

func mapOrderItemToDomain(row db.OrderItem) (domain.LineItem, error) {
	parsedCurrency, err := currency.ParseISO(row.UnitPriceCurrency)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.UnitPriceCurrency, err)
	}

	return domain.LineItem{
		ProductID:   row.ProductID,
		ProductName: row.ProductName,
		Quantity:    int(row.Quantity),
		UnitPrice:   domain.Money{Amount: row.UnitPriceAmount, Currency: parsedCurrency},
	}, nil
}
