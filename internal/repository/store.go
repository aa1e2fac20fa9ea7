package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ecart-demo/internal/db"
	"github.com/nikolayk812/ecart-demo/internal/port"
)

// PoolProvider hands out the shared pool while the database is reachable.
type PoolProvider interface {
	Pool() (*pgxpool.Pool, error)
	ReportFailure(err error)
}

type store struct {
	provider PoolProvider
	timeout  time.Duration

	// tx is set for stores bound to a transaction.
	tx pgx.Tx
}

func NewStore(provider PoolProvider, queryTimeout time.Duration) port.Store {
	return &store{
		provider: provider,
		timeout:  queryTimeout,
	}
}

func (s *store) Products() port.ProductRepository {
	return &productRepository{s: s}
}

func (s *store) Cart() port.CartRepository {
	return &cartRepository{s: s}
}

func (s *store) Orders() port.OrderRepository {
	return &orderRepository{s: s}
}

func (s *store) InTx(ctx context.Context, fn func(tx port.Store) error) error {
	_, err := withTx(ctx, s, func(tx *store) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// queries returns Queries bound to the current transaction or to the pool,
// and a context bounded by the query timeout.
func (s *store) queries(ctx context.Context) (*db.Queries, context.Context, context.CancelFunc, error) {
	if s.tx != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		return db.New(s.tx), ctx, cancel, nil
	}

	pool, err := s.provider.Pool()
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return db.New(pool), ctx, cancel, nil
}

func (s *store) inTx() bool {
	return s.tx != nil
}

var errTxRequired = errors.New("transaction required")
