// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xataio/csv2chain/internal/json"
	kafkalib "github.com/xataio/csv2chain/pkg/kafka"
	kafkamocks "github.com/xataio/csv2chain/pkg/kafka/mocks"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
)

func TestSink_sendBatch(t *testing.T) {
	t.Parallel()

	testTime := time.Date(2024, time.March, 1, 9, 5, 7, 0, time.UTC)
	testMsg := func(seq int) outputlog.Message {
		return outputlog.Message{Seq: seq, RunID: "run-1", Timestamp: testTime, Text: "Starting 1"}
	}
	errTest := errors.New("oh noes")

	tests := []struct {
		name       string
		serializer func(any) ([]byte, error)
		writeErr   error
		msgs       []outputlog.Message

		wantWrites int
		wantKeys   []string
		wantErr    error
	}{
		{
			name:       "ok",
			serializer: json.Marshal,
			msgs:       []outputlog.Message{testMsg(0), testMsg(1)},
			wantWrites: 1,
			wantKeys:   []string{"run-1", "run-1"},
		},
		{
			name: "ok - serialisation error skips the message",
			serializer: func(v any) ([]byte, error) {
				if v.(*Event).Seq == 0 {
					return nil, errTest
				}
				return json.Marshal(v)
			},
			msgs:       []outputlog.Message{testMsg(0), testMsg(1)},
			wantWrites: 1,
			wantKeys:   []string{"run-1"},
		},
		{
			name:       "ok - nothing to write",
			serializer: func(any) ([]byte, error) { return nil, errTest },
			msgs:       []outputlog.Message{testMsg(0)},
			wantWrites: 0,
		},
		{
			name:       "error - writing",
			serializer: json.Marshal,
			writeErr:   errTest,
			msgs:       []outputlog.Message{testMsg(0)},
			wantWrites: 1,
			wantKeys:   []string{"run-1"},
			wantErr:    errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			writer := &kafkamocks.Writer{
				WriteMessagesFn: func(ctx context.Context, i uint64, msgs ...kafkalib.Message) error {
					keys := []string{}
					for _, m := range msgs {
						keys = append(keys, string(m.Key))
						event := &Event{}
						require.NoError(t, json.Unmarshal(m.Value, event))
						require.Equal(t, "Starting 1", event.Text)
						require.True(t, testTime.Equal(event.Timestamp))
					}
					require.Equal(t, tc.wantKeys, keys)
					return tc.writeErr
				},
			}

			s := &Sink{
				logger:     loglib.NewNoopLogger(),
				writer:     writer,
				serializer: tc.serializer,
			}
			err := s.sendBatch(context.Background(), batch.NewBatch(tc.msgs))
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, uint64(tc.wantWrites), writer.GetWriteCalls())
		})
	}
}

func TestSink_SendAndClose(t *testing.T) {
	t.Parallel()

	written := make(chan []kafkalib.Message, 1)
	closed := false
	writer := &kafkamocks.Writer{
		WriteMessagesFn: func(ctx context.Context, i uint64, msgs ...kafkalib.Message) error {
			written <- msgs
			return nil
		},
		CloseFn: func() error {
			closed = true
			return nil
		},
	}

	s := &Sink{
		logger:     loglib.NewNoopLogger(),
		writer:     writer,
		serializer: json.Marshal,
	}
	require.NoError(t, s.startSender(context.Background(), &batch.Config{BatchTimeout: time.Hour}))

	l := outputlog.New(outputlog.WithSinks(s))
	l.AppendRun("run-2", "Starting 2")
	require.NoError(t, s.Close())

	msgs := <-written
	require.Len(t, msgs, 1)
	require.Equal(t, "run-2", string(msgs[0].Key))
	require.True(t, closed)
}
