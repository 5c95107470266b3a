// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (*Message, error)
	Close() error
}

// Reader consumes every partition of a topic from its first offset. Offsets
// are never committed, a new consumer group reads the topic from the start.
type Reader struct {
	reader *kafka.Reader
}

type ReaderConfig struct {
	Conn            ConnConfig
	ConsumerGroupID string
}

const maxReaderBytes = 10 * 1024 * 1024 // 10 MiB

func NewReader(config ReaderConfig, logger loglib.Logger) (*Reader, error) {
	logger.Info("creating kafka reader", loglib.Fields{
		"kafka_servers":  config.Conn.Servers,
		"kafka_topic":    config.Conn.Topic.Name,
		"consumer_group": config.ConsumerGroupID,
		"tls_enabled":    config.Conn.TLS.Enabled,
	})

	dialer, err := buildDialer(&config.Conn.TLS)
	if err != nil {
		return nil, err
	}

	return &Reader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     config.Conn.Servers,
			Topic:       config.Conn.Topic.Name,
			GroupID:     config.ConsumerGroupID,
			MaxBytes:    maxReaderBytes,
			Dialer:      dialer,
			Logger:      makeLogger(logger.Trace),
			ErrorLogger: makeErrLogger(logger.Error),
			StartOffset: kafka.FirstOffset,
		}),
	}, nil
}

// FetchMessage blocks until the next message is available or the context is
// done.
func (r *Reader) FetchMessage(ctx context.Context) (*Message, error) {
	kafkaMsg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	msg := Message(kafkaMsg)
	return &msg, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
