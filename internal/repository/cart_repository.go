package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikolayk812/ecart-demo/internal/db"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"golang.org/x/text/currency"
)

// cartLockKey identifies the advisory lock guarding the single cart.
const cartLockKey int64 = 0x6563617274

const pgForeignKeyViolation = "23503"

type cartRepository struct {
	s *store
}

func (r *cartRepository) LockCart(ctx context.Context) error {
	if !r.s.inTx() {
		return fmt.Errorf("LockCart: %w", errTxRequired)
	}

	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := q.LockCart(ctx, cartLockKey); err != nil {
		return fmt.Errorf("q.LockCart: %w", r.s.classify(err))
	}

	return nil
}

func (r *cartRepository) GetCart(ctx context.Context) (domain.Cart, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	defer cancel()

	dbCartItems, err := q.GetCart(ctx)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", r.s.classify(err))
	}

	lines, err := mapGetCartRowsToDomain(dbCartItems)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapGetCartRowsToDomain: %w", err)
	}

	return domain.Cart{Lines: lines}, nil
}

func (r *cartRepository) AddItem(ctx context.Context, productID int64, delta int) (int, error) {
	if delta <= 0 || delta > math.MaxInt32 {
		return 0, fmt.Errorf("delta %d is out of range: %w", delta, domain.ErrInvalidArgument)
	}

	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()

	quantity, err := q.AddCartItem(ctx, db.AddCartItemParams{
		ProductID: productID,
		Quantity:  int32(delta),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return 0, fmt.Errorf("product[%d]: %w", productID, domain.ErrNotFound)
		}
		if isOutOfRange(err) {
			return 0, fmt.Errorf("product[%d] quantity exceeds the limit: %w", productID, domain.ErrInvalidArgument)
		}
		return 0, fmt.Errorf("q.AddCartItem: %w", r.s.classify(err))
	}

	return int(quantity), nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, productID int64) (bool, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	rowsAffected, err := q.DeleteCartItem(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("q.DeleteCartItem: %w", r.s.classify(err))
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) ClearCart(ctx context.Context) error {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := q.ClearCart(ctx); err != nil {
		return fmt.Errorf("q.ClearCart: %w", r.s.classify(err))
	}

	return nil
}

func mapGetCartRowToDomain(row db.GetCartRow) (domain.CartLine, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.CartLine{
		Item: domain.CartItem{
			ProductID: row.ProductID,
			Quantity:  int(row.Quantity),
			AddedAt:   row.AddedAt,
		},
		Product: domain.Product{
			ID:          row.ProductID,
			Name:        row.Name,
			Description: row.Description,
			Category:    row.Category,
			Price:       domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
			Stock:       int(row.Stock),
			CreatedAt:   row.CreatedAt,
		},
	}, nil
}

func mapGetCartRowsToDomain(rows []db.GetCartRow) ([]domain.CartLine, error) {
	var lines []domain.CartLine

	for _, row := range rows {
		line, err := mapGetCartRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetCartRowToDomain: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}
