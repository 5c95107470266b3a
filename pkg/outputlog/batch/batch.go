// SPDX-License-Identifier: Apache-2.0

package batch

// Message is anything the sender can batch. Size is used to bound the batch
// and queue memory.
type Message interface {
	Size() int
}

type Batch[T Message] struct {
	messages   []T
	totalBytes int
}

func NewBatch[T Message](messages []T) *Batch[T] {
	b := &Batch[T]{}
	for _, m := range messages {
		b.add(m)
	}
	return b
}

func (b *Batch[T]) GetMessages() []T {
	return b.messages
}

func (b *Batch[T]) add(m T) {
	b.messages = append(b.messages, m)
	b.totalBytes += m.Size()
}

func (b *Batch[T]) drain() *Batch[T] {
	batch := &Batch[T]{
		messages:   b.messages,
		totalBytes: b.totalBytes,
	}

	b.messages = []T{}
	b.totalBytes = 0
	return batch
}

func (b *Batch[T]) isEmpty() bool {
	return len(b.messages) == 0
}

func (b *Batch[T]) maxBatchBytesReached(maxBatchBytes int64, msg T) bool {
	return maxBatchBytes > 0 && !b.isEmpty() && b.totalBytes+msg.Size() >= int(maxBatchBytes)
}
