package gsheets

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assessor/internal/app/system/tables"
	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Document is one worksheet in one spreadsheet.
type Document struct {
	sheets    *sheets.Service
	drive     *drive.Service
	id        string
	worksheet string
	header    int
	log       *zap.Logger
}

func (d *Document) ID() string { return d.id }

// Worksheet returns the worksheet title this document reads and writes.
func (d *Document) Worksheet() string { return d.worksheet }

func (d *Document) batch(ctx context.Context, data []*sheets.ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	_, err := d.sheets.Spreadsheets.Values.BatchUpdate(d.id, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInput,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", d.id, err)
	}
	return nil
}

func (d *Document) headerRange(t models.Table) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  rowRange(d.worksheet, d.header),
		Values: toValues([][]string{t.Columns}),
	}
}

func (d *Document) bodyRange(rows [][]string) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  rowRange(d.worksheet, d.header+1),
		Values: toValues(rows),
	}
}

func (d *Document) commentRange(comment string, row, column int) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  cellRange(d.worksheet, row, column),
		Values: [][]interface{}{{htmlsanitize.PlainText(comment)}},
	}
}

// Write writes the header labels, the body and, when non-empty, the comment.
// Existing cells outside the written area are left alone. header > 0 also
// becomes the header height for later calls on this document.
func (d *Document) Write(ctx context.Context, t models.Table, header int, comment string) error {
	if header > 0 {
		d.header = header
	}
	if comment != "" && d.header < 2 {
		return ErrCommentNeedsHeader
	}
	data := []*sheets.ValueRange{d.headerRange(t)}
	if len(t.Rows) > 0 {
		data = append(data, d.bodyRange(t.Rows))
	}
	if comment != "" {
		data = append(data, d.commentRange(comment, 1, 1))
	}
	return d.batch(ctx, data)
}

// WriteHeaders writes only the column labels.
func (d *Document) WriteHeaders(ctx context.Context, t models.Table) error {
	return d.batch(ctx, []*sheets.ValueRange{d.headerRange(t)})
}

// WriteBody writes only the rows, below the header block.
func (d *Document) WriteBody(ctx context.Context, t models.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	return d.batch(ctx, []*sheets.ValueRange{d.bodyRange(t.Rows)})
}

// WriteComment writes comment to the cell at (row, column), both 1-based.
func (d *Document) WriteComment(ctx context.Context, comment string, row, column int) error {
	if row < 1 || column < 1 {
		return fmt.Errorf("comment cell (%d, %d) is out of range", row, column)
	}
	return d.batch(ctx, []*sheets.ValueRange{d.commentRange(comment, row, column)})
}

// Read returns the body below the header block, labelled by the last header
// row. names, when given, replace those labels; useColumns then selects a
// subset of columns by label, in the order given. Rows come back padded to
// the column count.
func (d *Document) Read(ctx context.Context, names, useColumns []string) (models.Table, error) {
	t, err := d.read(ctx)
	if err != nil {
		return models.Table{}, err
	}
	if len(names) > 0 {
		t.Columns = append([]string(nil), names...)
		pad(&t)
	}
	if len(useColumns) > 0 {
		return tables.Select(t, useColumns)
	}
	return t, nil
}

func (d *Document) read(ctx context.Context) (models.Table, error) {
	vr, err := d.sheets.Spreadsheets.Values.Get(d.id, sheetRange(d.worksheet)).Context(ctx).Do()
	if err != nil {
		return models.Table{}, fmt.Errorf("read %s: %w", d.id, err)
	}
	rows := fromValues(vr.Values)

	var t models.Table
	if len(rows) >= d.header {
		t.Columns = rows[d.header-1]
		t.Rows = rows[d.header:]
	}
	pad(&t)
	return t, nil
}

// pad makes every row exactly as wide as the widest of the columns and rows,
// naming unlabelled columns by their letter.
func pad(t *models.Table) {
	width := len(t.Columns)
	for _, r := range t.Rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for len(t.Columns) < width {
		t.Columns = append(t.Columns, columnLetter(len(t.Columns)+1))
	}
	for i, r := range t.Rows {
		for len(r) < width {
			r = append(r, "")
		}
		t.Rows[i] = r
	}
}

// Update merges t into the worksheet. Rows are matched on the first column
// of t. For matched rows the given columns (all but the first when empty)
// are set when overwrite is true or the existing cell is blank. Unmatched
// rows are appended and columns missing from the sheet are added on the
// right. The table held before the update is returned.
func (d *Document) Update(ctx context.Context, t models.Table, columns []string, comment string, overwrite bool) (models.Table, error) {
	if len(t.Columns) == 0 {
		return models.Table{}, fmt.Errorf("update %s: table has no columns", d.id)
	}
	if comment != "" && d.header < 2 {
		return models.Table{}, ErrCommentNeedsHeader
	}
	if len(columns) == 0 {
		columns = t.Columns[1:]
	}
	for _, c := range columns {
		if t.ColumnIndex(c) < 0 {
			return models.Table{}, fmt.Errorf("update %s: column %q not in table", d.id, c)
		}
	}

	before, err := d.read(ctx)
	if err != nil {
		return models.Table{}, err
	}
	merged := merge(before.Clone(), t, columns, overwrite)

	data := []*sheets.ValueRange{d.headerRange(merged), d.bodyRange(merged.Rows)}
	if comment != "" {
		data = append(data, d.commentRange(comment, 1, 1))
	}
	if err := d.batch(ctx, data); err != nil {
		return models.Table{}, err
	}
	d.log.Debug("worksheet updated",
		zap.String("sheet_id", d.id),
		zap.Int("rows_before", len(before.Rows)),
		zap.Int("rows_after", len(merged.Rows)))
	return before, nil
}

func merge(cur, t models.Table, columns []string, overwrite bool) models.Table {
	if len(cur.Columns) == 0 {
		cur.Columns = append([]string(nil), t.Columns...)
	}
	index := t.Columns[0]
	if cur.ColumnIndex(index) < 0 {
		cur.Columns = append([]string{index}, cur.Columns...)
		for i, r := range cur.Rows {
			cur.Rows[i] = append([]string{""}, r...)
		}
	}
	for _, c := range t.Columns {
		if cur.ColumnIndex(c) < 0 {
			cur.Columns = append(cur.Columns, c)
		}
	}
	pad(&cur)

	curIdx := cur.ColumnIndex(index)
	rowOf := make(map[string]int, len(cur.Rows))
	for i, r := range cur.Rows {
		if _, dup := rowOf[r[curIdx]]; !dup {
			rowOf[r[curIdx]] = i
		}
	}

	for r := range t.Rows {
		key := t.Cell(r, 0)
		i, ok := rowOf[key]
		if !ok {
			row := make([]string, len(cur.Columns))
			for j, c := range t.Columns {
				row[cur.ColumnIndex(c)] = t.Cell(r, j)
			}
			cur.Rows = append(cur.Rows, row)
			rowOf[key] = len(cur.Rows) - 1
			continue
		}
		for _, c := range columns {
			dst := cur.ColumnIndex(c)
			if overwrite || cur.Rows[i][dst] == "" {
				cur.Rows[i][dst] = t.Cell(r, t.ColumnIndex(c))
			}
		}
	}
	return cur
}
