package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ecart-demo/internal/migrations"
)

// migrationLockKey keeps concurrently starting instances from racing on DDL.
const migrationLockKey int64 = 0x6d69677261746521

// Migrate applies the embedded schema and seed scripts. Every script is idempotent,
// so it runs on each (re)connection.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (txErr error) {
	scripts, err := migrations.Scripts()
	if err != nil {
		return fmt.Errorf("migrations.Scripts: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pool.Begin: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(context.WithoutCancel(ctx))
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}

	for _, script := range scripts {
		if _, err := tx.Exec(ctx, script.SQL); err != nil {
			return fmt.Errorf("apply %s: %w", script.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}
