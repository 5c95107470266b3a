// SPDX-License-Identifier: Apache-2.0

package retrier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/csv2chain/internal/backoff"
	backoffmocks "github.com/xataio/csv2chain/internal/backoff/mocks"
	"github.com/xataio/csv2chain/internal/postgres"
	pgmocks "github.com/xataio/csv2chain/internal/postgres/mocks"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

func TestQuerier_Exec(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name   string
		execFn func(ctx context.Context, i uint, query string, args ...any) (postgres.CommandTag, error)

		wantConns int
		wantErr   error
	}{
		{
			name: "ok",
			execFn: func(ctx context.Context, i uint, query string, args ...any) (postgres.CommandTag, error) {
				return postgres.CommandTag{}, nil
			},
			wantConns: 1,
		},
		{
			name: "ok - transient error retried",
			execFn: func(ctx context.Context, i uint, query string, args ...any) (postgres.CommandTag, error) {
				if i == 1 {
					return postgres.CommandTag{}, postgres.ErrConnTimeout
				}
				return postgres.CommandTag{}, nil
			},
			wantConns: 2,
		},
		{
			name: "error - permanent error not retried",
			execFn: func(ctx context.Context, i uint, query string, args ...any) (postgres.CommandTag, error) {
				return postgres.CommandTag{}, &postgres.ErrConstraintViolation{Details: "duplicate key"}
			},
			wantConns: 1,
			wantErr:   &postgres.ErrConstraintViolation{},
		},
		{
			name: "error - retries exhausted",
			execFn: func(ctx context.Context, i uint, query string, args ...any) (postgres.CommandTag, error) {
				return postgres.CommandTag{}, errTest
			},
			wantConns: 4,
			wantErr:   errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conns := 0
			// the same mock is shared across connections so that the call
			// counter keeps increasing after a reset
			querier := &pgmocks.Querier{ExecFn: tc.execFn}
			q, err := NewQuerier(context.Background(), nil, func(ctx context.Context) (postgres.Querier, error) {
				conns++
				return querier, nil
			}, loglib.NewNoopLogger())
			require.NoError(t, err)
			q.backoffProvider = func(ctx context.Context) backoff.Backoff {
				return &backoffmocks.Backoff{MaxAttempts: 3}
			}

			_, err = q.Exec(context.Background(), "INSERT INTO t VALUES(1)")
			if tc.wantErr != nil {
				require.Error(t, err)
				if target := (&postgres.ErrConstraintViolation{}); errors.As(tc.wantErr, &target) {
					require.ErrorAs(t, err, &target)
				} else {
					require.ErrorIs(t, err, tc.wantErr)
				}
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantConns, conns)
		})
	}
}

func TestIsRetriableError(t *testing.T) {
	t.Parallel()

	require.True(t, isRetriableError(postgres.ErrConnTimeout))
	require.True(t, isRetriableError(errors.New("connection reset by peer")))
	require.False(t, isRetriableError(context.Canceled))
	require.False(t, isRetriableError(&postgres.ErrPermissionDenied{}))
	require.False(t, isRetriableError(&postgres.ErrRelationDoesNotExist{}))
}
