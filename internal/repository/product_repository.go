package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/ecart-demo/internal/db"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"golang.org/x/text/currency"
)

type productRepository struct {
	s *store
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rows, err := q.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("q.ListProducts: %w", r.s.classify(err))
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := mapProductToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapProductToDomain: %w", err)
		}
		products = append(products, p)
	}

	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	q, ctx, cancel, err := r.s.queries(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer cancel()

	row, err := q.GetProduct(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product[%d]: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("q.GetProduct: %w", r.s.classify(err))
	}

	return mapProductToDomain(row)
}

func mapProductToDomain(row db.Product) (domain.Product, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		Price:       domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		Stock:       int(row.Stock),
		CreatedAt:   row.CreatedAt,
	}, nil
}
