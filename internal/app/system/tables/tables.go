// Package tables reads and writes the tabular payloads sent to participant
// spreadsheets as delimited text files.
package tables

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/assessor/internal/app/system/normalize"
	"github.com/dalemusser/assessor/internal/domain/models"
)

// Input limits.
const (
	MaxFileSize = 5 << 20 // 5 MB
	MaxRows     = 20000
)

var (
	ErrEmpty       = errors.New("table file has no header row")
	ErrTooLarge    = errors.New("table file is too large")
	ErrTooManyRows = errors.New("table file has too many rows")
)

// ReadCSV reads a delimited table whose first record holds the column
// labels. Short rows are padded to the header width; blank lines are
// skipped.
func ReadCSV(r io.Reader, sep rune) (models.Table, error) {
	if sep == 0 {
		sep = ','
	}
	lr := &io.LimitedReader{R: r, N: MaxFileSize + 1}
	reader := csv.NewReader(bufio.NewReader(lr))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return models.Table{}, ErrEmpty
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("read header: %w", err)
	}
	t := models.Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = normalize.Header(h)
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Table{}, fmt.Errorf("read row %d: %w", len(t.Rows)+2, err)
		}
		if blank(rec) {
			continue
		}
		if len(t.Rows) >= MaxRows {
			return models.Table{}, fmt.Errorf("%w: limit is %d", ErrTooManyRows, MaxRows)
		}
		for len(rec) < len(t.Columns) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	if lr.N <= 0 {
		return models.Table{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxFileSize)
	}
	return t, nil
}

// ReadFile reads the table at path.
func ReadFile(path string, sep rune) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, err
	}
	defer f.Close()
	t, err := ReadCSV(f, sep)
	if err != nil {
		return models.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes t with its header row.
func WriteCSV(w io.Writer, t models.Table, sep rune) error {
	if sep == 0 {
		sep = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(path string, t models.Table, sep rune) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t, sep); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Select returns the named columns of t, in the order given.
func Select(t models.Table, cols []string) (models.Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j := t.ColumnIndex(c)
		if j < 0 {
			return models.Table{}, fmt.Errorf("column %q not found", c)
		}
		idx[i] = j
	}
	out := models.Table{Columns: append([]string(nil), cols...)}
	for r := range t.Rows {
		row := make([]string, len(idx))
		for i, j := range idx {
			row[i] = t.Cell(r, j)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// TrimCells returns a copy of t with surrounding whitespace removed from
// every label and cell.
func TrimCells(t models.Table) models.Table {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = strings.TrimSpace(c)
	}
	for _, r := range out.Rows {
		for j, c := range r {
			r[j] = strings.TrimSpace(c)
		}
	}
	return out
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
