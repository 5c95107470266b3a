// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/csv2chain/internal/json"
	kafkalib "github.com/xataio/csv2chain/pkg/kafka"
	kafkainstrumentation "github.com/xataio/csv2chain/pkg/kafka/instrumentation"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/otel"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
)

// Sink publishes the output log messages to a kafka topic, keyed by run id so
// that the lines of a run keep their order within a partition.
type Sink struct {
	logger          loglib.Logger
	writer          kafkalib.MessageWriter
	sender          *batch.Sender[outputlog.Message]
	serializer      func(any) ([]byte, error)
	instrumentation *otel.Instrumentation
}

// Event is the JSON value of the published messages.
type Event struct {
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

type Option func(*Sink)

var _ outputlog.Sink = (*Sink)(nil)

func NewSink(ctx context.Context, cfg *Config, opts ...Option) (*Sink, error) {
	s := &Sink{
		logger:     loglib.NewNoopLogger(),
		serializer: json.Marshal,
	}
	for _, opt := range opts {
		opt(s)
	}

	writer, err := kafkalib.NewWriter(kafkalib.WriterConfig{Conn: cfg.Kafka}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka writer: %w", err)
	}

	if s.writer, err = kafkainstrumentation.NewWriter(writer, s.instrumentation); err != nil {
		writer.Close()
		return nil, err
	}

	if err := s.startSender(ctx, &cfg.Batch); err != nil {
		writer.Close()
		return nil, err
	}
	return s, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Sink) {
		s.logger = loglib.WithModule(l, "output_log_kafka_sink")
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(s *Sink) {
		s.instrumentation = i
	}
}

func (s *Sink) startSender(ctx context.Context, cfg *batch.Config) error {
	batchCfg := *cfg
	batchCfg.IgnoreSendErrors = true
	var err error
	s.sender, err = batch.NewSender(ctx, &batchCfg, s.sendBatch, s.logger)
	return err
}

func (s *Sink) Send(ctx context.Context, msg outputlog.Message) error {
	return s.sender.SendMessage(ctx, msg)
}

// Close flushes the pending messages and closes the writer.
func (s *Sink) Close() error {
	s.sender.Close()
	return s.writer.Close()
}

func (s *Sink) sendBatch(ctx context.Context, b *batch.Batch[outputlog.Message]) error {
	msgs := make([]kafkalib.Message, 0, len(b.GetMessages()))
	for _, m := range b.GetMessages() {
		value, err := s.serializer(&Event{
			RunID:     m.RunID,
			Seq:       m.Seq,
			Timestamp: m.Timestamp,
			Text:      m.Text,
		})
		if err != nil {
			// a message that can't be serialised is skipped, the rest of the
			// batch is still published
			s.logger.Error(err, "serialising output log message", loglib.Fields{"seq": m.Seq})
			continue
		}
		msgs = append(msgs, kafkalib.Message{
			Key:   []byte(m.RunID),
			Value: value,
		})
	}

	if len(msgs) == 0 {
		return nil
	}
	return s.writer.WriteMessages(ctx, msgs...)
}
