// SPDX-License-Identifier: Apache-2.0

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type config struct {
	delimiter     rune
	commentPrefix string
}

type Option func(*config)

const (
	defaultDelimiter     = ','
	defaultCommentPrefix = "#"
)

var errInvalidDelimiter = errors.New("invalid delimiter")

// ParseError is returned when the delimited text can't be parsed. Line is the
// physical line number (1 based) in the raw input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing table at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parsing table: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func WithDelimiter(d rune) Option {
	return func(c *config) {
		c.delimiter = d
	}
}

// WithCommentPrefix sets the prefix that marks a line as a comment. An empty
// prefix disables comment handling.
func WithCommentPrefix(prefix string) Option {
	return func(c *config) {
		c.commentPrefix = prefix
	}
}

// Parse turns raw delimited text into a table. Lines whose first non
// whitespace characters are the comment prefix are dropped before field
// splitting, as are blank lines, unless they continue a quoted field. There are no header semantics, every
// remaining line is a data row.
func Parse(raw string, opts ...Option) (*Table, error) {
	cfg := &config{
		delimiter:     defaultDelimiter,
		commentPrefix: defaultCommentPrefix,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !validDelimiter(cfg.delimiter) {
		return nil, &ParseError{Err: fmt.Errorf("%w: %q", errInvalidDelimiter, cfg.delimiter)}
	}

	data, lineMap := stripComments(raw, cfg.commentPrefix)

	reader := csv.NewReader(strings.NewReader(data))
	reader.Comma = cfg.delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toParseError(err, lineMap)
		}
		rows = append(rows, record)
	}

	return New(rows), nil
}

// stripComments removes comment and blank lines. Lines continuing a quoted
// field are kept as they are. The returned slice maps the line numbers of the
// stripped text to the ones in the raw input.
func stripComments(raw, prefix string) (string, []int) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	lineMap := make([]int, 0, len(lines))
	inQuotes := false
	for i, line := range lines {
		if !inQuotes {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if prefix != "" && strings.HasPrefix(trimmed, prefix) {
				continue
			}
		}
		// escaped quotes toggle twice
		if strings.Count(line, `"`)%2 == 1 {
			inQuotes = !inQuotes
		}
		kept = append(kept, line)
		lineMap = append(lineMap, i+1)
	}
	return strings.Join(kept, "\n"), lineMap
}

func toParseError(err error, lineMap []int) *ParseError {
	perr := &ParseError{Err: err}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) && csvErr.Line > 0 && csvErr.Line <= len(lineMap) {
		perr.Line = lineMap[csvErr.Line-1]
	}
	return perr
}

func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}
