// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xataio/csv2chain/internal/backoff"
	"github.com/xataio/csv2chain/internal/postgres"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

// Querier retries the operations that fail with transient errors, rebuilding
// the underlying connection between attempts.
type Querier struct {
	connBuilder     ConnBuilder
	querier         postgres.Querier
	backoffProvider backoff.Provider
	logger          loglib.Logger
}

type ConnBuilder func(context.Context) (postgres.Querier, error)

var _ postgres.Querier = (*Querier)(nil)

func NewQuerier(ctx context.Context, cfg *backoff.Config, connBuilder ConnBuilder, logger loglib.Logger) (*Querier, error) {
	conn, err := connBuilder(ctx)
	if err != nil {
		return nil, err
	}

	return &Querier{
		connBuilder:     connBuilder,
		querier:         conn,
		backoffProvider: backoff.NewProvider(cfg),
		logger:          loglib.NewLogger(logger),
	}, nil
}

func (q *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	var rows postgres.Rows
	err := q.withRetry(ctx, func() error {
		var err error
		rows, err = q.querier.Query(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRow is not retried, since errors are only known once the row is
// scanned.
func (q *Querier) QueryRow(ctx context.Context, query string, args ...any) postgres.Row {
	return q.querier.QueryRow(ctx, query, args...)
}

func (q *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	var cmdTag postgres.CommandTag
	err := q.withRetry(ctx, func() error {
		var err error
		cmdTag, err = q.querier.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return postgres.CommandTag{}, err
	}
	return cmdTag, nil
}

func (q *Querier) ExecInTx(ctx context.Context, fn func(tx postgres.Tx) error) error {
	return q.withRetry(ctx, func() error {
		return q.querier.ExecInTx(ctx, fn)
	})
}

func (q *Querier) Ping(ctx context.Context) error {
	return q.querier.Ping(ctx)
}

func (q *Querier) Close(ctx context.Context) error {
	return q.querier.Close(ctx)
}

func (q *Querier) withRetry(ctx context.Context, operation func() error) error {
	err := operation()
	if err == nil || !isRetriableError(err) {
		return err
	}

	// only initialise the backoff if the operation fails
	bo := q.backoffProvider(ctx)
	err = bo.RetryNotify(func() error {
		if connErr := q.resetConn(ctx); connErr != nil {
			return fmt.Errorf("unable to reset connection: %w", connErr)
		}

		err := operation()
		if err != nil && !isRetriableError(err) {
			return fmt.Errorf("%w: %w", err, backoff.ErrPermanent)
		}
		return err
	}, func(err error, d time.Duration) {
		q.logger.Warn(err, "retrying postgres operation after error", loglib.Fields{
			"retry_delay": d.String(),
		})
	})

	if err == nil {
		q.logger.Info("retried postgres operation succeeded")
	}
	return err
}

func (q *Querier) resetConn(ctx context.Context) error {
	conn, err := q.connBuilder(ctx)
	if err != nil {
		return err
	}
	if q.querier != nil {
		q.querier.Close(ctx)
	}
	q.querier = conn
	return nil
}

func isRetriableError(err error) bool {
	mappedErr := postgres.MapError(err)

	permissionDenied := &postgres.ErrPermissionDenied{}
	constraintViolation := &postgres.ErrConstraintViolation{}
	doesNotExist := &postgres.ErrRelationDoesNotExist{}
	switch {
	case errors.As(mappedErr, &permissionDenied),
		errors.As(mappedErr, &constraintViolation),
		errors.As(mappedErr, &doesNotExist),
		errors.Is(mappedErr, postgres.ErrNoRows),
		errors.Is(err, context.Canceled):
		return false
	}

	return true
}
