package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/ecart-demo/internal/domain"
)

func withTx[T any](ctx context.Context, s *store, fn func(tx *store) (T, error)) (_ T, txErr error) {
	var zero T

	// If we're already in a transaction, just use the existing one
	if s.inTx() {
		return fn(s)
	}

	pool, err := s.provider.Pool()
	if err != nil {
		return zero, err
	}

	beginCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := pool.Begin(beginCtx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", s.classify(err))
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
			defer cancel()

			rollbackErr := tx.Rollback(rollbackCtx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(&store{provider: s.provider, timeout: s.timeout, tx: tx})
	if err != nil {
		return zero, err
	}

	commitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := tx.Commit(commitCtx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", s.classifyCommit(err))
	}

	return result, nil
}

// classifyCommit separates definite commit rejections from failures
// where the server may or may not have applied the transaction.
func (s *store) classifyCommit(err error) error {
	classified := s.classify(err)
	if errors.Is(classified, domain.ErrDataUnavailable) {
		return errors.Join(domain.ErrCommitUnknown, classified)
	}
	return classified
}
