// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	synclib "github.com/xataio/csv2chain/internal/sync"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

// Sender accumulates messages and hands them to the send function in
// batches, either when the batch is full or when the send interval ticks.
type Sender[T Message] struct {
	logger loglib.Logger

	// queueBytesSema bounds the memory held by messages waiting to be sent
	queueBytesSema   synclib.WeightedSemaphore
	msgChan          chan T
	once             *sync.Once
	sendDone         chan error
	sendErr          error
	ignoreSendErrors bool

	maxBatchBytes     int64
	maxBatchSize      int64
	batchSendInterval time.Duration

	wg       *sync.WaitGroup
	loopDone chan struct{}
	cancelFn context.CancelFunc

	sendBatchFn SendBatchFn[T]
}

type SendBatchFn[T Message] func(context.Context, *Batch[T]) error

var errSendStopped = errors.New("stop processing, sending has stopped")

func NewSender[T Message](ctx context.Context, config *Config, sendfn SendBatchFn[T], logger loglib.Logger) (*Sender[T], error) {
	maxQueueBytes, err := config.GetMaxQueueBytes()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Sender[T]{
		batchSendInterval: config.GetBatchTimeout(),
		maxBatchBytes:     config.GetMaxBatchBytes(),
		maxBatchSize:      config.GetMaxBatchSize(),
		queueBytesSema:    synclib.NewWeightedSemaphore(maxQueueBytes),
		msgChan:           make(chan T),
		sendDone:          make(chan error, 1),
		once:              &sync.Once{},
		logger:            loglib.NewLogger(logger),
		sendBatchFn:       sendfn,
		wg:                &sync.WaitGroup{},
		loopDone:          make(chan struct{}),
		cancelFn:          cancel,
		ignoreSendErrors:  config.IgnoreSendErrors,
	}

	go func() {
		defer close(s.loopDone)
		if err := s.send(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(err, "sending stopped")
		}
	}()

	return s, nil
}

// SendMessage adds the message to the batch, which will be sent when the
// interval or the max number of messages is reached by a background process.
func (s *Sender[T]) SendMessage(ctx context.Context, msg T) error {
	msgSize := int64(msg.Size())
	if !s.queueBytesSema.TryAcquire(msgSize) {
		s.logger.Warn(nil, "batch sender: max queue bytes reached, processing blocked")
		if err := s.queueBytesSema.Acquire(ctx, msgSize); err != nil {
			return err
		}
	}

	select {
	case s.msgChan <- msg:
	case sendDoneErr, ok := <-s.sendDone:
		if ok && sendDoneErr != nil {
			s.sendErr = sendDoneErr
		}
		s.queueBytesSema.Release(msgSize)
		return fmt.Errorf("%w: %w", errSendStopped, s.sendErr)
	case <-ctx.Done():
		s.queueBytesSema.Release(msgSize)
		return ctx.Err()
	}

	return nil
}

func (s *Sender[T]) send(ctx context.Context) error {
	// the IO happens on its own goroutine so that batching continues while a
	// batch is in flight
	batchChan := make(chan *Batch[T])
	sendErrChan := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer func() {
			close(sendErrChan)
			s.wg.Done()
		}()
		for batch := range batchChan {
			err := s.sendBatchFn(context.Background(), batch)
			s.queueBytesSema.Release(int64(batch.totalBytes))
			if err != nil {
				s.logger.Error(err, "failed to send batch", loglib.Fields{"batch_size": len(batch.messages)})
				if s.ignoreSendErrors {
					continue
				}
				sendErrChan <- err
				return
			}
		}
	}()
	defer close(batchChan)

	drainBatch := func(batch *Batch[T]) error {
		if batch.isEmpty() {
			return nil
		}

		select {
		case batchChan <- batch.drain():
		case sendErr := <-sendErrChan:
			return sendErr
		}
		return nil
	}

	batchMsgLoop := func() error {
		ticker := time.NewTicker(s.batchSendInterval)
		defer ticker.Stop()
		msgBatch := &Batch[T]{}
		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("context terminated, draining in flight batch")
				if err := drainBatch(msgBatch); err != nil {
					return err
				}
				return ctx.Err()
			case sendErr := <-sendErrChan:
				return sendErr
			case <-ticker.C:
				if err := drainBatch(msgBatch); err != nil {
					return err
				}
			case msg := <-s.msgChan:
				if msgBatch.maxBatchBytesReached(s.maxBatchBytes, msg) {
					if err := drainBatch(msgBatch); err != nil {
						return err
					}
				}

				msgBatch.add(msg)

				if len(msgBatch.messages) >= int(s.maxBatchSize) {
					if err := drainBatch(msgBatch); err != nil {
						return err
					}
				}
			}
		}
	}

	err := batchMsgLoop()
	s.sendDone <- err
	close(s.sendDone)
	return err
}

// Close stops the sending, flushing the in flight batch and waiting for the
// ongoing sends to finish. It is safe to call multiple times.
func (s *Sender[T]) Close() {
	s.once.Do(func() {
		s.logger.Trace("closing batch sender")
		s.cancelFn()
		<-s.loopDone
		s.wg.Wait()
		s.logger.Trace("batch sender closed")
	})
}
