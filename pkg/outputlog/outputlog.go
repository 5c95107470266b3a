// SPDX-License-Identifier: Apache-2.0

package outputlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

// Log is the append only, timestamped list of human readable lines reporting
// the progress of migrations. It's safe for concurrent use.
type Log struct {
	logger loglib.Logger
	clock  clockwork.Clock
	sinks  []Sink

	// appendMu keeps sink delivery in insertion order
	appendMu sync.Mutex
	mu       sync.RWMutex
	messages []Message
}

type Message struct {
	// Seq is the zero based position of the message in the log.
	Seq       int       `json:"seq"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Sink receives every message appended to the log.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

type Option func(*Log)

const timestampLayout = "15:04:05"

func New(opts ...Option) *Log {
	l := &Log{
		logger:   loglib.NewNoopLogger(),
		clock:    clockwork.NewRealClock(),
		messages: []Message{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func WithClock(c clockwork.Clock) Option {
	return func(l *Log) {
		l.clock = c
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(l *Log) {
		l.sinks = append(l.sinks, sinks...)
	}
}

func WithLogger(logger loglib.Logger) Option {
	return func(l *Log) {
		l.logger = loglib.WithModule(logger, "output_log")
	}
}

// Append adds a line timestamped with the current local time.
func (l *Log) Append(text string) Message {
	return l.AppendRun("", text)
}

// AppendRun adds a line produced by the migration run with the given id.
func (l *Log) AppendRun(runID, text string) Message {
	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	l.mu.Lock()
	msg := Message{
		Seq:       len(l.messages),
		RunID:     runID,
		Timestamp: l.clock.Now(),
		Text:      text,
	}
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	for _, sink := range l.sinks {
		if err := sink.Send(context.Background(), msg); err != nil {
			l.logger.Error(err, "sending output log message", loglib.Fields{
				loglib.RunIDField: runID,
				"seq":             msg.Seq,
			})
		}
	}

	return msg
}

// Messages returns a copy of all the messages, oldest first.
func (l *Log) Messages() []Message {
	return l.Since(0)
}

// Since returns a copy of the messages from position n onwards. A position
// past the end returns no messages.
func (l *Log) Since(n int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n >= len(l.messages) {
		return []Message{}
	}
	msgs := make([]Message, len(l.messages)-n)
	copy(msgs, l.messages[n:])
	return msgs
}

// Lines returns the rendered messages, oldest first.
func (l *Log) Lines() []string {
	msgs := l.Messages()
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.String())
	}
	return lines
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// String renders the message as "[HH:MM:SS] text", using the timestamp
// location.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Timestamp.Format(timestampLayout), m.Text)
}

// Size is the approximate memory footprint of the message.
func (m Message) Size() int {
	return len(m.Text) + len(m.RunID) + 32
}
