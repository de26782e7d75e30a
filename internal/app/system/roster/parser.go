// internal/app/system/roster/parser.go
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/assessor/internal/app/system/inputval"
	norm "github.com/dalemusser/assessor/internal/app/system/normalize"
	"github.com/dalemusser/assessor/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Default roster limits.
const (
	DefaultSeparator = ','
	MaxRows          = 20000
)

// EmailColumn is the canonical name of the roster key column.
const EmailColumn = "Email"

// ParseOptions controls roster parsing.
type ParseOptions struct {
	// Separator is the field delimiter. Zero means DefaultSeparator.
	Separator rune
	// MaxRows caps the number of data rows. Zero means no limit.
	MaxRows int
}

// DefaultParseOptions returns comma-separated parsing with the default row cap.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Separator: DefaultSeparator, MaxRows: MaxRows}
}

// ParsedResult holds the participants and row errors from one parse.
type ParsedResult struct {
	Participants []models.Participant
	Errors       []RowError
}

// HasErrors returns true if there are any validation errors.
func (r *ParsedResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseCSV reads a delimited roster. The first row is always the header and
// must contain an Email column (matched case-insensitively). Every other
// column is kept verbatim on the participant.
//
// Returns ErrNoEmailColumn if the header has no Email column and
// ErrTooManyRows if MaxRows is exceeded (when MaxRows > 0).
func ParseCSV(r io.Reader, opts ParseOptions) (ParsedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.TrimLeadingSpace = true
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}

	var result ParsedResult

	header, err := reader.Read()
	if err == io.EOF {
		return result, ErrNoEmailColumn
	}
	if err != nil {
		return result, err
	}

	var records [][]string
	var parseErrors []string
	lineNum := 1
	for {
		rec, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("line %d: %s", lineNum, err.Error()))
			continue
		}
		if opts.MaxRows > 0 && len(records) >= opts.MaxRows {
			return result, ErrTooManyRows
		}
		records = append(records, rec)
	}

	// A structurally broken file is rejected as a whole.
	if len(parseErrors) > 0 {
		for _, pe := range parseErrors {
			result.Errors = append(result.Errors, RowError{Reason: pe})
		}
		return result, nil
	}

	return parseRecords(header, records, 2)
}

// ParseTable validates an already-tabular roster (for example one read from
// a remote worksheet). firstLine is the line number reported for Rows[0].
func ParseTable(t models.Table, firstLine int) (ParsedResult, error) {
	return parseRecords(t.Columns, t.Rows, firstLine)
}

func parseRecords(header []string, records [][]string, firstLine int) (ParsedResult, error) {
	var result ParsedResult

	columns := make([]string, len(header))
	emailCol := -1
	for i, h := range header {
		columns[i] = norm.Header(h)
		if emailCol < 0 && text.Fold(columns[i]) == text.Fold(EmailColumn) {
			emailCol = i
		}
	}
	if emailCol < 0 {
		return result, ErrNoEmailColumn
	}

	seen := make(map[string]int) // email -> first line
	for i, rec := range records {
		line := firstLine + i

		if blankRecord(rec) {
			continue
		}

		var raw string
		if emailCol < len(rec) {
			raw = rec[emailCol]
		}
		email := norm.Email(raw)
		if email == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing email", Raw: rec})
			continue
		}
		if !inputval.IsValidEmail(email) {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "invalid email format", Raw: rec})
			continue
		}
		if first, dup := seen[email]; dup {
			result.Errors = append(result.Errors, RowError{
				Line:   line,
				Reason: fmt.Sprintf("duplicate email (first appears on line %d)", first),
				Raw:    rec,
			})
			continue
		}
		seen[email] = line

		fields := make(map[string]string, len(columns))
		for c, name := range columns {
			if name == "" {
				continue
			}
			if c < len(rec) {
				fields[name] = strings.TrimSpace(rec[c])
			} else {
				fields[name] = ""
			}
		}
		fields[columns[emailCol]] = email

		result.Participants = append(result.Participants, models.Participant{Email: email, Fields: fields})
	}

	return result, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
