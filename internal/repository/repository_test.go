package repository_test

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/dbconn"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/logging"
	"github.com/nikolayk812/ecart-demo/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "shopdb"
	dbUser     = "shop"
	dbPassword = "shop-secret"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, config.DatabaseConfig, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("postgres.Run: %w", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("pc.Host: %w", err)
	}

	mappedPort, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("pc.MappedPort: %w", err)
	}

	port, err := strconv.Atoi(mappedPort.Port())
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("strconv.Atoi: %w", err)
	}

	cfg := config.Default().Database
	cfg.Host = host
	cfg.Port = port
	cfg.Name = dbName
	cfg.User = dbUser
	cfg.Password = dbPassword
	cfg.RetryInitialInterval = 50 * time.Millisecond
	cfg.RetryMaxInterval = time.Second

	return postgresContainer, cfg, nil
}

// connect runs a Manager with the migration hook and waits until it is Connected.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*dbconn.Manager, context.CancelFunc, error) {
	mgr, err := dbconn.New(cfg, logging.Discard().WithField("test", "repository"),
		dbconn.WithOnConnect(repository.Migrate))
	if err != nil {
		return nil, nil, fmt.Errorf("dbconn.New: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = mgr.Run(runCtx) }()

	deadline := time.Now().Add(30 * time.Second)
	for mgr.State() != domain.Connected {
		if time.Now().After(deadline) {
			cancel()
			return nil, nil, fmt.Errorf("manager is still %s", mgr.State())
		}
		time.Sleep(50 * time.Millisecond)
	}

	return mgr, cancel, nil
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, price decimal.Decimal) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx,
		"INSERT INTO products (name, description, category, price_amount, stock) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		gofakeit.ProductName(), gofakeit.ProductDescription(), gofakeit.ProductCategory(), price, gofakeit.IntRange(1, 100),
	).Scan(&id)
	return id, err
}

func setPrice(ctx context.Context, pool *pgxpool.Pool, id int64, price decimal.Decimal) error {
	_, err := pool.Exec(ctx, "UPDATE products SET price_amount = $1 WHERE id = $2", price, id)
	return err
}

func randomPrice() decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2)
}
