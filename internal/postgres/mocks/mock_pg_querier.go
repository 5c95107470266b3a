// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/csv2chain/internal/postgres"
)

type Querier struct {
	QueryRowFn    func(ctx context.Context, query string, args ...any) postgres.Row
	QueryFn       func(ctx context.Context, query string, args ...any) (postgres.Rows, error)
	ExecFn        func(context.Context, uint, string, ...any) (postgres.CommandTag, error)
	ExecInTxFn    func(context.Context, uint, func(tx postgres.Tx) error) error
	PingFn        func(context.Context) error
	CloseFn       func(context.Context) error
	execCalls     uint32
	execInTxCalls uint32
}

func (m *Querier) QueryRow(ctx context.Context, query string, args ...any) postgres.Row {
	return m.QueryRowFn(ctx, query, args...)
}

func (m *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	return m.QueryFn(ctx, query, args...)
}

func (m *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	i := atomic.AddUint32(&m.execCalls, 1)
	return m.ExecFn(ctx, uint(i), query, args...)
}

func (m *Querier) ExecInTx(ctx context.Context, fn func(tx postgres.Tx) error) error {
	i := atomic.AddUint32(&m.execInTxCalls, 1)
	return m.ExecInTxFn(ctx, uint(i), fn)
}

func (m *Querier) GetExecInTxCalls() uint {
	return uint(atomic.LoadUint32(&m.execInTxCalls))
}

func (m *Querier) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx)
	}
	return nil
}
