// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"sync"
)

// accountWorker runs the sends of one signing account in FIFO order. The
// queue is unbounded so scheduling never blocks.
type accountWorker struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func newAccountWorker() *accountWorker {
	return &accountWorker{
		wake: make(chan struct{}, 1),
	}
}

func (w *accountWorker) enqueue(job func()) {
	w.mu.Lock()
	w.queue = append(w.queue, job)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *accountWorker) next() (func(), bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false
	}
	job := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return job, true
}

// run processes the queue until stop is closed. Jobs still queued when stop
// is closed are dropped.
func (w *accountWorker) run(stop <-chan struct{}) {
	for {
		if job, ok := w.next(); ok {
			job()
			continue
		}
		select {
		case <-w.wake:
		case <-stop:
			return
		}
	}
}
