// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/csv2chain/pkg/outputlog"
)

type Sink struct {
	SendFn    func(ctx context.Context, i uint64, msg outputlog.Message) error
	sendCalls uint64
}

func (m *Sink) Send(ctx context.Context, msg outputlog.Message) error {
	i := atomic.AddUint64(&m.sendCalls, 1)
	return m.SendFn(ctx, i, msg)
}

func (m *Sink) GetSendCalls() uint64 {
	return atomic.LoadUint64(&m.sendCalls)
}
