// SPDX-License-Identifier: Apache-2.0

package sync

import "sync"

type Map[T comparable, K any] struct {
	m     map[T]K
	mutex *sync.RWMutex
}

func NewMap[T comparable, K any]() *Map[T, K] {
	return &Map[T, K]{
		m:     make(map[T]K),
		mutex: &sync.RWMutex{},
	}
}

// LoadOrStore returns the value for the key if present. Otherwise it stores
// and returns the result of newValue. The boolean is true when the value was
// already present.
func (m *Map[T, K]) LoadOrStore(key T, newValue func() K) (K, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if value, ok := m.m[key]; ok {
		return value, true
	}
	value := newValue()
	m.m[key] = value
	return value, false
}
