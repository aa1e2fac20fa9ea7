package port

import "context"

// Store groups the repositories sharing one connection pool.
type Store interface {
	Products() ProductRepository
	Cart() CartRepository
	Orders() OrderRepository

	// InTx runs fn against repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
