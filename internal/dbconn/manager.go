// Package dbconn owns the lifecycle of the single database connection pool.
//
// The database may not be reachable when the process starts, so Run keeps
// retrying in the background with a capped exponential backoff while the
// rest of the process serves requests and reports the current state.
package dbconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/db"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/sirupsen/logrus"
)

// Hook runs after every successful (re)connection, before the state becomes Connected.
type Hook func(ctx context.Context, pool *pgxpool.Pool) error

type Option func(*Manager)

func WithOnConnect(h Hook) Option {
	return func(m *Manager) {
		m.hooks = append(m.hooks, h)
	}
}

type Manager struct {
	cfg     config.DatabaseConfig
	poolCfg *pgxpool.Config
	log     *logrus.Entry
	hooks   []Hook

	state atomic.Int32

	poolMu sync.Mutex
	pool   atomic.Pointer[pgxpool.Pool]

	failures chan error

	// ping probes the database; replaced in tests.
	ping func(ctx context.Context) error
}

func New(cfg config.DatabaseConfig, log *logrus.Entry, opts ...Option) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	m := &Manager{
		cfg:      cfg,
		poolCfg:  poolCfg,
		log:      log.WithField("component", "dbconn"),
		failures: make(chan error, 1),
	}
	m.ping = m.pingPool

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// State is safe to call from any goroutine.
func (m *Manager) State() domain.ConnState {
	return domain.ConnState(m.state.Load())
}

// Pool returns the pool only while Connected, so callers fail fast otherwise.
func (m *Manager) Pool() (*pgxpool.Pool, error) {
	if s := m.State(); s != domain.Connected {
		return nil, fmt.Errorf("database is %s: %w", s, domain.ErrDataUnavailable)
	}

	pool := m.pool.Load()
	if pool == nil {
		return nil, fmt.Errorf("pool is not initialized: %w", domain.ErrDataUnavailable)
	}

	return pool, nil
}

// Ping probes an established connection. A failed probe is handed to Run,
// which owns the transition out of Connected.
func (m *Manager) Ping(ctx context.Context) error {
	if s := m.State(); s != domain.Connected {
		return fmt.Errorf("database is %s: %w", s, domain.ErrDataUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	if err := m.ping(ctx); err != nil {
		m.ReportFailure(err)
		return fmt.Errorf("ping: %w", errors.Join(domain.ErrDataUnavailable, err))
	}

	return nil
}

// ReportFailure tells Run that a caller observed a connectivity error. It never blocks.
func (m *Manager) ReportFailure(err error) {
	select {
	case m.failures <- err:
	default:
	}
}

// Run is the connection-management routine and the only writer of the state.
// It returns when ctx is cancelled, after closing the pool.
func (m *Manager) Run(ctx context.Context) error {
	defer m.close()

	for {
		if err := m.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("m.connect: %w", err)
		}

		m.monitor(ctx)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (m *Manager) connect(ctx context.Context) error {
	attempt := 0

	operation := func() error {
		attempt++
		m.setState(domain.Connecting)

		if err := m.attempt(ctx); err != nil {
			m.setState(domain.Failed)
			return err
		}

		return nil
	}

	notify := func(err error, wait time.Duration) {
		m.log.WithError(err).
			WithField("attempt", attempt).
			WithField("address", m.cfg.Address()).
			Warnf("database connection failed, retrying in %s", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(m.newBackOff(), ctx), notify); err != nil {
		return err
	}

	m.setState(domain.Connected)
	m.log.WithField("attempt", attempt).WithField("address", m.cfg.Address()).Info("database connected")

	return nil
}

func (m *Manager) attempt(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	if err := m.ping(pingCtx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	if len(m.hooks) == 0 {
		return nil
	}

	pool := m.pool.Load()
	if pool == nil {
		return errors.New("pool is not initialized")
	}

	hookCtx, cancel := context.WithTimeout(ctx, m.cfg.QueryTimeout)
	defer cancel()

	for _, h := range m.hooks {
		if err := h(hookCtx, pool); err != nil {
			return fmt.Errorf("on connect: %w", err)
		}
	}

	return nil
}

// monitor returns once the connection is considered lost or ctx is done.
func (m *Manager) monitor(ctx context.Context) {
	// failures reported before we got here are stale
	select {
	case <-m.failures:
	default:
	}

	ticker := time.NewTicker(m.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		var reported error

		select {
		case <-ctx.Done():
			return
		case reported = <-m.failures:
		case <-ticker.C:
		}

		if err := m.check(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setState(domain.Failed)
			m.log.WithError(err).WithField("reported", reported).Error("database connection lost")
			return
		}
	}
}

func (m *Manager) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	return m.ping(ctx)
}

func (m *Manager) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.RetryInitialInterval
	b.MaxInterval = m.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

func (m *Manager) setState(s domain.ConnState) {
	prev := domain.ConnState(m.state.Swap(int32(s)))
	if prev != s {
		m.log.WithField("from", prev.String()).WithField("to", s.String()).Debug("connection state changed")
	}
}

func (m *Manager) pingPool(ctx context.Context) error {
	pool, err := m.ensurePool(ctx)
	if err != nil {
		return err
	}

	return pool.Ping(ctx)
}

// ensurePool creates the pool on first use; pgxpool dials lazily so this does not block on the network.
func (m *Manager) ensurePool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool := m.pool.Load(); pool != nil {
		return pool, nil
	}

	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	if pool := m.pool.Load(); pool != nil {
		return pool, nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, m.poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	m.pool.Store(pool)

	return pool, nil
}

func (m *Manager) close() {
	m.setState(domain.Disconnected)

	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	if pool := m.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}

// Identity describes the configured database for diagnostics.
type Identity struct {
	Host string
	Port int
	Name string
	User string
}

func (m *Manager) Identity() Identity {
	return Identity{
		Host: m.cfg.Host,
		Port: m.cfg.Port,
		Name: m.cfg.Name,
		User: m.cfg.User,
	}
}

// ServerVersion asks the connected server for its version string.
func (m *Manager) ServerVersion(ctx context.Context) (string, error) {
	pool, err := m.Pool()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.QueryTimeout)
	defer cancel()

	version, err := db.New(pool).ServerVersion(ctx)
	if err != nil {
		m.ReportFailure(err)
		return "", fmt.Errorf("q.ServerVersion: %w", errors.Join(domain.ErrDataUnavailable, err))
	}

	return version, nil
}
