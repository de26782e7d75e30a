package roster

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoEmailColumn is returned when the roster has no Email column.
	ErrNoEmailColumn = errors.New("roster has no Email column")

	// ErrTooManyRows is returned when ParseOptions.MaxRows is exceeded.
	ErrTooManyRows = errors.New("roster exceeds maximum row count")

	// ErrBadSource is returned when a roster descriptor is neither a file
	// path nor a complete remote worksheet reference.
	ErrBadSource = errors.New("participant list should be a file name or a spreadsheet_key and worksheet_name pair")
)

// RowError describes one rejected roster row.
type RowError struct {
	Line   int
	Reason string
	Raw    []string
}

// ParseError aggregates row errors from a roster that failed validation.
type ParseError struct {
	Source string
	Errors []RowError
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("roster ")
	if e.Source != "" {
		b.WriteString(strconv.Quote(e.Source))
		b.WriteString(" ")
	}
	b.WriteString("contains errors: ")
	b.WriteString(FormatErrors(e.Errors, 5))
	return b.String()
}

// FormatErrors renders up to maxShow row errors on one line. If maxShow is
// <= 0 it defaults to 5.
func FormatErrors(errs []RowError, maxShow int) string {
	if maxShow <= 0 {
		maxShow = 5
	}
	if len(errs) < maxShow {
		maxShow = len(errs)
	}

	parts := make([]string, 0, maxShow+1)
	for i := 0; i < maxShow; i++ {
		e := errs[i]
		if e.Line > 0 {
			parts = append(parts, "line "+strconv.Itoa(e.Line)+": "+e.Reason)
		} else {
			parts = append(parts, e.Reason)
		}
	}
	if len(errs) > maxShow {
		parts = append(parts, "... and "+strconv.Itoa(len(errs)-maxShow)+" more")
	}
	return strings.Join(parts, "; ")
}
