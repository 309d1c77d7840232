package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/logging"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/retry"
)

// SQLConnection is the database/sql backed Connection shared by the dialect
// adapters. The pool is capped at one connection; queries run sequentially.
type SQLConnection struct {
	spec     ConnectionSpec
	db       *sql.DB
	strategy SchemaExtractionStrategy
	verify   func(ctx context.Context, db *sql.DB) error
	logger   *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// SQLConnectionOption customizes a SQLConnection.
type SQLConnectionOption func(*SQLConnection)

// WithVerify runs fn after a successful ping in Open, e.g. to confirm the
// session landed in the expected database.
func WithVerify(fn func(ctx context.Context, db *sql.DB) error) SQLConnectionOption {
	return func(c *SQLConnection) {
		c.verify = fn
	}
}

// NewSQLConnection wraps db. newStrategy binds the dialect strategy to db.
// db must not have been used yet; nothing is sent to the server here.
func NewSQLConnection(spec ConnectionSpec, db *sql.DB, newStrategy func(*sql.DB) SchemaExtractionStrategy, logger *zap.Logger, opts ...SQLConnectionOption) *SQLConnection {
	if logger == nil {
		logger = zap.NewNop()
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLConnection{
		spec:     spec,
		db:       db,
		strategy: newStrategy(db),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open pings the database, retrying transient failures up to
// spec.ConnectRetries times.
func (c *SQLConnection) Open(ctx context.Context) error {
	attempt := 0
	err := retry.DoIfRetryable(ctx, retry.ConnectConfig(c.spec.ConnectRetries), func() error {
		attempt++
		if err := c.db.PingContext(ctx); err != nil {
			c.logger.Warn("Ping failed",
				zap.String("target", c.spec.String()),
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrConnection, c.spec.String(), logging.WrapSanitized(err))
	}

	if c.verify != nil {
		if err := c.verify(ctx, c.db); err != nil {
			return fmt.Errorf("%w: %s: %w", apperrors.ErrConnection, c.spec.String(), err)
		}
	}

	c.logger.Debug("Connected", zap.String("target", c.spec.String()))
	return nil
}

// Strategy returns the dialect strategy bound to this connection.
func (c *SQLConnection) Strategy() SchemaExtractionStrategy {
	return c.strategy
}

// Spec returns the normalized connection spec.
func (c *SQLConnection) Spec() ConnectionSpec {
	return c.spec
}

// DB exposes the underlying pool.
func (c *SQLConnection) DB() *sql.DB {
	return c.db
}

// Close releases the pool. Subsequent calls return the first result.
func (c *SQLConnection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.db.Close()
		if errors.Is(c.closeErr, sql.ErrConnDone) {
			c.closeErr = nil
		}
	})
	return c.closeErr
}

var _ Connection = (*SQLConnection)(nil)
