// Package parser turns raw JSON lines into storage entries.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rwatch/datagen/internal/storage"
)

// Common parsing errors.
var (
	ErrEmptyLine   = errors.New("parser: empty line")
	ErrInvalidJSON = errors.New("parser: invalid json")
)

// maxRawLen bounds how much of a rejected line is kept for diagnostics.
const maxRawLen = 256

// ParseError describes a line that could not be parsed.
type ParseError struct {
	// Line is the 1-based position of the line within its batch.
	// Zero means the line was parsed on its own.
	Line int

	// Raw is the offending input, truncated for logging.
	Raw string

	// Err is ErrEmptyLine or ErrInvalidJSON.
	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Raw)
	}
	return fmt.Sprintf("%v: %q", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser parses JSON documents, one per line. It holds no state and is
// safe for concurrent use.
type Parser struct{}

// New creates a JSON line parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses a single line into an entry.
// Any JSON document is accepted: objects, arrays and scalars. Numbers
// that would not survive storage unchanged are rejected as invalid.
func (p *Parser) Parse(line string) (storage.Entry, error) {
	if strings.TrimSpace(line) == "" {
		return storage.Entry{}, &ParseError{Raw: line, Err: ErrEmptyLine}
	}
	if !gjson.Valid(line) {
		return storage.Entry{}, &ParseError{Raw: truncate(line), Err: ErrInvalidJSON}
	}

	doc := gjson.Parse(line)
	if err := checkNumbers(doc); err != nil {
		return storage.Entry{}, &ParseError{Raw: truncate(line), Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}

	entry, err := storage.NewEntry(doc.Value())
	if err != nil {
		return storage.Entry{}, &ParseError{Raw: truncate(line), Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}
	return entry, nil
}

// ParseAll parses every line independently. Failures do not stop the
// batch; each one is returned as a *ParseError carrying its line number.
func (p *Parser) ParseAll(lines []string) ([]storage.Entry, []*ParseError) {
	entries := make([]storage.Entry, 0, len(lines))
	var failures []*ParseError

	for i, line := range lines {
		entry, err := p.Parse(line)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = i + 1
				failures = append(failures, pe)
			}
			continue
		}
		entries = append(entries, entry)
	}

	return entries, failures
}

// maxExactInt is the largest integer magnitude a float64 holds exactly.
const maxExactInt = 1 << 53

// checkNumbers rejects numbers that cannot be stored without changing
// their value: anything beyond float64 range and integers beyond 2^53.
func checkNumbers(r gjson.Result) error {
	switch {
	case r.IsObject(), r.IsArray():
		var err error
		r.ForEach(func(_, v gjson.Result) bool {
			err = checkNumbers(v)
			return err == nil
		})
		return err
	case r.Type == gjson.Number:
		return checkNumber(r.Raw)
	}
	return nil
}

func checkNumber(raw string) error {
	// Underflow rounds to zero without loss of meaning; only overflow fails.
	f, err := strconv.ParseFloat(raw, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("number out of range: %s", raw)
	}
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return err
	}
	if strings.ContainsAny(raw, ".eE") {
		return nil
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || i > maxExactInt || i < -maxExactInt {
		return fmt.Errorf("integer out of range: %s", raw)
	}
	return nil
}

func truncate(s string) string {
	if len(s) <= maxRawLen {
		return s
	}
	return s[:maxRawLen] + "..."
}
