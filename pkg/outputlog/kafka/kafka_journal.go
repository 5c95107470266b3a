// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xataio/csv2chain/internal/json"
	kafkalib "github.com/xataio/csv2chain/pkg/kafka"
	"github.com/xataio/csv2chain/pkg/outputlog"
)

const defaultIdleTimeout = 5 * time.Second

// ReadRun returns the messages of the run published on the output log topic,
// ordered by sequence. Reading stops once the topic has been idle for
// idleTimeout, or when the context is done.
func ReadRun(ctx context.Context, reader kafkalib.MessageReader, runID string, idleTimeout time.Duration) ([]outputlog.Message, error) {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	msgs := []outputlog.Message{}
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		kafkaMsg, err := reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			return nil, fmt.Errorf("reading output log topic: %w", err)
		}

		if string(kafkaMsg.Key) != runID {
			continue
		}
		event := &Event{}
		if err := json.Unmarshal(kafkaMsg.Value, event); err != nil {
			return nil, fmt.Errorf("decoding output log event: %w", err)
		}
		msgs = append(msgs, outputlog.Message{
			Seq:       event.Seq,
			RunID:     event.RunID,
			Timestamp: event.Timestamp,
			Text:      event.Text,
		})
	}

	slices.SortStableFunc(msgs, func(a, b outputlog.Message) int {
		return a.Seq - b.Seq
	})
	return msgs, nil
}
