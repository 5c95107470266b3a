// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/csv2chain/internal/migrator"
	pglib "github.com/xataio/csv2chain/internal/postgres"
	"github.com/xataio/csv2chain/internal/postgres/retrier"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
)

// Store persists the output log messages in postgres. Writes are batched in
// the background.
type Store struct {
	logger  loglib.Logger
	querier pglib.Querier
	sender  *batch.Sender[outputlog.Message]
}

type Option func(*Store)

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
	defaultMaxRetries      = 5
)

var (
	tableName   = pglib.QuoteQualifiedIdentifier(migrator.Schema, "output_log")
	copyColumns = []string{"run_id", "seq", "logged_at", "text"}
)

var _ outputlog.Sink = (*Store)(nil)

func NewStore(ctx context.Context, cfg *Config, opts ...Option) (*Store, error) {
	s := &Store{
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	querier, err := retrier.NewQuerier(ctx, cfg.retryConfig(), func(ctx context.Context) (pglib.Querier, error) {
		return pglib.NewConnPool(ctx, cfg.URL)
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to output log store: %w", err)
	}
	s.querier = querier

	// losing a batch of output lines must not stop the migration
	batchCfg := cfg.Batch
	batchCfg.IgnoreSendErrors = true
	s.sender, err = batch.NewSender(ctx, &batchCfg, s.sendBatch, s.logger)
	if err != nil {
		querier.Close(ctx)
		return nil, err
	}

	return s, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Store) {
		s.logger = loglib.WithModule(l, "output_log_postgres_store")
	}
}

// Send queues the message to be written with the next batch.
func (s *Store) Send(ctx context.Context, msg outputlog.Message) error {
	return s.sender.SendMessage(ctx, msg)
}

// ListRun returns the stored messages of a migration run, in log order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]outputlog.Message, error) {
	query := fmt.Sprintf("SELECT run_id, seq, logged_at, text FROM %s WHERE run_id = $1 ORDER BY seq", tableName)
	rows, err := s.querier.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying output log: %w", err)
	}
	defer rows.Close()

	msgs := []outputlog.Message{}
	for rows.Next() {
		msg := outputlog.Message{}
		if err := rows.Scan(&msg.RunID, &msg.Seq, &msg.Timestamp, &msg.Text); err != nil {
			return nil, fmt.Errorf("scanning output log row: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return msgs, nil
}

// Close flushes the pending messages and closes the connection.
func (s *Store) Close() error {
	s.sender.Close()
	return s.querier.Close(context.Background())
}

func (s *Store) sendBatch(ctx context.Context, b *batch.Batch[outputlog.Message]) error {
	msgs := b.GetMessages()
	rows := make([][]any, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, []any{m.RunID, m.Seq, m.Timestamp, m.Text})
	}

	return s.querier.ExecInTx(ctx, func(tx pglib.Tx) error {
		n, err := tx.CopyFrom(ctx, tableName, append([]string{}, copyColumns...), rows)
		if err != nil {
			return fmt.Errorf("copying output log messages: %w", err)
		}
		s.logger.Trace("output log batch stored", loglib.Fields{"rows": n})
		return nil
	})
}
