// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xataio/csv2chain/pkg/contract"
	"github.com/xataio/csv2chain/pkg/conversion"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/table"
)

// Session is the state of a user migration workspace: the loaded table, the
// configured migration functions and the output log. It is safe for
// concurrent use.
type Session struct {
	mu        sync.Mutex
	table     *table.Table
	model     *migration.Model
	log       *outputlog.Log
	executor  *migration.Executor
	provider  contract.Provider
	logger    loglib.Logger
	tableOpts []table.Option
}

type Option func(*Session)

var (
	ErrFunctionNotFound = errors.New("migration function not found")
	ErrColumnNotFound   = errors.New("column not found")
	ErrContractNotFound = errors.New("contract not found")
	ErrFunctionNotSet   = errors.New("migration function has no function selected")
)

func NewSession(provider contract.Provider, log *outputlog.Log, executor *migration.Executor, opts ...Option) *Session {
	s := &Session{
		table:    table.New(nil),
		model:    migration.NewModel(),
		log:      log,
		executor: executor,
		provider: provider,
		logger:   loglib.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Session) {
		s.logger = loglib.WithModule(l, "workspace_session")
	}
}

// WithTableOptions sets the options used to parse loaded tables.
func WithTableOptions(opts ...table.Option) Option {
	return func(s *Session) {
		s.tableOpts = opts
	}
}

// LoadTable parses the raw delimited text and replaces the current table. On
// failure the current table is kept and the parse error is appended to the
// output log.
func (s *Session) LoadTable(raw string) error {
	t, err := table.Parse(raw, s.tableOpts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn(err, "loading table")
		s.log.Append(migration.ErrorPrefix + err.Error())
		return err
	}

	s.table = t
	s.model.SetColumnCount(t.Width())
	s.logger.Debug("table loaded", loglib.Fields{"rows": t.Len(), "columns": t.Width()})
	return nil
}

func (s *Session) Table() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func (s *Session) Contracts(ctx context.Context) ([]*contract.Contract, error) {
	return s.provider.ListContracts(ctx)
}

func (s *Session) AddFunction() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.AddFunction()
}

func (s *Session) RemoveFunction(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFunction(i); err != nil {
		return err
	}
	s.model.RemoveFunction(i)
	return nil
}

// SelectContract selects the named contract for the migration function. An
// empty name clears the selection.
func (s *Session) SelectContract(ctx context.Context, i int, name string) error {
	var selected *contract.Contract
	if name != "" {
		contracts, err := s.provider.ListContracts(ctx)
		if err != nil {
			return fmt.Errorf("listing contracts: %w", err)
		}
		c, found := contract.Find(contracts, name)
		if !found {
			return fmt.Errorf("%w: %s", ErrContractNotFound, name)
		}
		selected = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFunction(i); err != nil {
		return err
	}
	s.model.SelectContract(i, selected)
	return nil
}

func (s *Session) SelectFunction(i int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFunction(i); err != nil {
		return err
	}
	s.model.SelectFunction(i, name)
	return nil
}

func (s *Session) SelectParameter(i, col int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkColumn(i, col); err != nil {
		return err
	}
	s.model.SelectParameter(i, col, name)
	return nil
}

// SelectConversion sets the conversion of a mapped column by name. Unknown
// names return conversion.ErrUnknownConversion.
func (s *Session) SelectConversion(i, col int, name string) error {
	c, err := conversion.Parse(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkColumn(i, col); err != nil {
		return err
	}
	s.model.SelectConversion(i, col, c)
	return nil
}

func (s *Session) SelectableParameters(i, col int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkColumn(i, col); err != nil {
		return nil, err
	}
	return s.model.SelectableParameters(i, col), nil
}

func (s *Session) Functions() []migration.FunctionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Functions()
}

// Run starts a migration of the current table using a snapshot of the
// configured functions. Later changes to the session don't affect it.
func (s *Session) Run(ctx context.Context, opts migration.RunOptions) *migration.Run {
	s.mu.Lock()
	functions := s.model.Functions()
	t := s.table
	s.mu.Unlock()

	return s.executor.Run(ctx, functions, t, opts)
}

func (s *Session) Log() *outputlog.Log {
	return s.log
}

func (s *Session) checkFunction(i int) error {
	if i < 0 || i >= s.model.Len() {
		return fmt.Errorf("%w: %d", ErrFunctionNotFound, i)
	}
	return nil
}

func (s *Session) checkColumn(i, col int) error {
	if err := s.checkFunction(i); err != nil {
		return err
	}
	fn := s.model.Function(i)
	if fn.Function == nil {
		return fmt.Errorf("%w: %d", ErrFunctionNotSet, i)
	}
	if col < 0 || col >= len(fn.Mappings) {
		return fmt.Errorf("%w: %d", ErrColumnNotFound, col)
	}
	return nil
}
