// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xataio/csv2chain/pkg/workspace"
	"gopkg.in/yaml.v3"
)

// Plan is a migration configuration read from YAML. Plans are input only,
// the workspace state is never written back to them.
type Plan struct {
	// Table is the path to the delimited text file to migrate. Relative
	// paths are resolved against the plan file directory.
	Table     string     `yaml:"table"`
	Functions []Function `yaml:"functions"`
}

type Function struct {
	Contract string   `yaml:"contract"`
	Function string   `yaml:"function"`
	Columns  []Column `yaml:"columns"`
}

type Column struct {
	Column     int    `yaml:"column"`
	Parameter  string `yaml:"parameter"`
	Conversion string `yaml:"conversion"`
}

// Issue is a configuration problem found while applying a plan. Function is
// the index of the plan function it refers to.
type Issue struct {
	Function int
	Message  string
	Err      error
}

var (
	ErrUnknownFunction    = errors.New("unknown function")
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrDuplicateParameter = errors.New("parameter mapped more than once")
	ErrMissingTable       = errors.New("plan has no table")
)

func (i *Issue) Error() string {
	return fmt.Sprintf("function %d: %s", i.Function, i.Message)
}

func (i *Issue) Unwrap() error {
	return i.Err
}

// Load reads the plan at the given path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if p.Table != "" && !filepath.IsAbs(p.Table) {
		p.Table = filepath.Join(filepath.Dir(path), p.Table)
	}
	return p, nil
}

// Parse decodes a YAML plan. Unknown fields are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	p := &Plan{}
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return p, nil
}

// LoadTable reads the plan table file into the session.
func (p *Plan) LoadTable(s *workspace.Session) error {
	if p.Table == "" {
		return ErrMissingTable
	}
	raw, err := os.ReadFile(p.Table)
	if err != nil {
		return fmt.Errorf("reading table: %w", err)
	}
	return s.LoadTable(string(raw))
}

// Apply replays the plan selections on the session, which should already
// hold the table. It stops at the first configuration problem.
func (p *Plan) Apply(ctx context.Context, s *workspace.Session) error {
	return p.apply(ctx, s, func(issue *Issue) error {
		return issue
	})
}

// Validate replays the plan selections on the session and reports every
// configuration problem: unknown contracts, functions and parameters,
// columns missing from the table and parameters no column is mapped to.
// The returned error is only set when the session can't be configured.
func (p *Plan) Validate(ctx context.Context, s *workspace.Session) ([]*Issue, error) {
	issues := []*Issue{}
	err := p.apply(ctx, s, func(issue *Issue) error {
		issues = append(issues, issue)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, fn := range s.Functions() {
		if !fn.Complete() {
			continue
		}
		for _, name := range fn.UnmappedParameters() {
			issues = append(issues, &Issue{
				Function: i,
				Message:  fmt.Sprintf("parameter %s of %s is not mapped to any column", name, fn.Name()),
			})
		}
	}
	return issues, nil
}

func (p *Plan) apply(ctx context.Context, s *workspace.Session, report func(*Issue) error) error {
	for _, pf := range p.Functions {
		i := s.AddFunction()

		if err := s.SelectContract(ctx, i, pf.Contract); err != nil {
			if !errors.Is(err, workspace.ErrContractNotFound) {
				return err
			}
			if err := report(&Issue{Function: i, Message: err.Error(), Err: err}); err != nil {
				return err
			}
			continue
		}

		if err := s.SelectFunction(i, pf.Function); err != nil {
			return err
		}
		fn := s.Functions()[i]
		if fn.Function == nil {
			err := fmt.Errorf("%w: %s.%s", ErrUnknownFunction, pf.Contract, pf.Function)
			if err := report(&Issue{Function: i, Message: err.Error(), Err: err}); err != nil {
				return err
			}
			continue
		}

		mapped := map[string]int{}
		for _, col := range pf.Columns {
			var err error
			if prev, found := mapped[col.Parameter]; found {
				err = fmt.Errorf("%w: %s mapped to columns %d and %d", ErrDuplicateParameter, col.Parameter, prev, col.Column)
			} else {
				err = applyColumn(s, i, fn.Function.ParamIndex(col.Parameter) >= 0, pf, col)
			}
			if err != nil {
				if err := report(&Issue{Function: i, Message: err.Error(), Err: err}); err != nil {
					return err
				}
				continue
			}
			mapped[col.Parameter] = col.Column
		}
	}
	return nil
}

func applyColumn(s *workspace.Session, i int, knownParam bool, pf Function, col Column) error {
	if !knownParam {
		return fmt.Errorf("%w: %s of %s.%s", ErrUnknownParameter, col.Parameter, pf.Contract, pf.Function)
	}
	if err := s.SelectParameter(i, col.Column, col.Parameter); err != nil {
		if errors.Is(err, workspace.ErrColumnNotFound) {
			return fmt.Errorf("parameter %s mapped to a column missing from the table: %w", col.Parameter, err)
		}
		return err
	}
	if col.Conversion != "" {
		return s.SelectConversion(i, col.Column, col.Conversion)
	}
	return nil
}
