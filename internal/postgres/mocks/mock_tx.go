// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/csv2chain/internal/postgres"
)

type Tx struct {
	ExecFn     func(ctx context.Context, query string, args ...any) (postgres.CommandTag, error)
	CopyFromFn func(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error)
}

func (m *Tx) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	return m.ExecFn(ctx, query, args...)
}

func (m *Tx) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	return m.CopyFromFn(ctx, tableName, columnNames, srcRows)
}
