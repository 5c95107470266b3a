// SPDX-License-Identifier: Apache-2.0

package batch

type mockMessage struct {
	id   int
	size int
}

func (m *mockMessage) Size() int {
	if m.size > 0 {
		return m.size
	}
	return 1
}
