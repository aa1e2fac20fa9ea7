package repository

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikolayk812/ecart-demo/internal/domain"
)

const (
	pgUniqueViolation        = "23505"
	pgCheckViolation         = "23514"
	pgNumericValueOutOfRange = "22003"
)

// classify marks connectivity failures and timeouts as ErrDataUnavailable
// and reports them to the connection manager. Other errors pass through.
func (s *store) classify(err error) error {
	if err == nil || errors.Is(err, domain.ErrDataUnavailable) {
		return err
	}

	if !isConnectivityError(err) {
		return err
	}

	s.provider.ReportFailure(err)

	return errors.Join(domain.ErrDataUnavailable, err)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 57P0x: operator intervention (shutdown, cannot connect now)
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || pgconn.SafeToRetry(err) {
		return true
	}

	// pgxpool and puddle report a closed pool with a plain error
	return strings.Contains(err.Error(), "closed pool")
}

// isOutOfRange reports values rejected by a column range or CHECK constraint.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == pgNumericValueOutOfRange || pgErr.Code == pgCheckViolation)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
