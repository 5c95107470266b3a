// SPDX-License-Identifier: Apache-2.0

package sync

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_LoadOrStore(t *testing.T) {
	t.Parallel()

	m := NewMap[string, *int]()
	var created int64

	var wg sync.WaitGroup
	values := make([]*int, 10)
	for i := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i], _ = m.LoadOrStore("a", func() *int {
				atomic.AddInt64(&created, 1)
				return new(int)
			})
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&created))
	for _, v := range values {
		require.Same(t, values[0], v)
	}

	got, found := m.LoadOrStore("a", func() *int { return new(int) })
	require.True(t, found)
	require.Same(t, values[0], got)

	other, found := m.LoadOrStore("b", func() *int { return new(int) })
	require.False(t, found)
	require.NotSame(t, values[0], other)
}
