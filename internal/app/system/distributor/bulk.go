package distributor

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/store/audit"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
)

// Transform derives the table written for one participant from the shared
// payload. It receives a private copy of the payload.
type Transform func(p models.Participant, t models.Table) (models.Table, error)

// WriteOptions controls Write.
type WriteOptions struct {
	// Header is the number of header rows; zero keeps the document default.
	Header int
	// Comment is written to the top-left cell when non-empty.
	Comment string
	// Transform, when set, is applied per participant before writing.
	Transform Transform
	// Overwrite writes to participants that already had a spreadsheet.
	// Without it those participants are skipped.
	Overwrite bool
}

// UpdateOptions controls Update.
type UpdateOptions struct {
	// Columns limits the update to these columns; empty means all.
	Columns   []string
	Comment   string
	Transform Transform
	// Overwrite replaces non-empty cells; otherwise only empty cells are filled.
	Overwrite bool
}

func (d *Distributor) begin(op string) string {
	runID := auditlog.NewRunID()
	d.log.Info("starting bulk operation",
		zap.String("operation", op),
		zap.String("run_id", runID),
		zap.Int("participants", d.roster.Len()))
	return runID
}

func (d *Distributor) payload(p models.Participant, t models.Table, fn Transform) (models.Table, error) {
	if fn == nil {
		return t, nil
	}
	out, err := fn(p, t.Clone())
	if err != nil {
		return models.Table{}, fmt.Errorf("transform for %s: %w", p.Email, err)
	}
	return out, nil
}

// Write writes t to every participant's spreadsheet, creating spreadsheets as
// needed. Participants that already had a spreadsheet are skipped unless
// opts.Overwrite is set. Each participant is written at most once.
func (d *Distributor) Write(ctx context.Context, t models.Table, opts WriteOptions) error {
	runID := d.begin("write")
	for _, p := range d.roster.Participants() {
		if id, existed := d.keys[p.Email]; existed && !opts.Overwrite {
			d.audit.WriteSkipped(ctx, runID, p.Email, id)
			continue
		}
		data, err := d.payload(p, t, opts.Transform)
		if err != nil {
			return err
		}
		doc, _, err := d.document(ctx, runID, p.Email)
		if err != nil {
			return err
		}
		wctx, cancel := d.to.MediumCtx(ctx)
		err = doc.Write(wctx, data, opts.Header, opts.Comment)
		cancel()
		d.audit.DocumentAction(ctx, runID, audit.EventDocumentWritten, "write", p.Email, doc.ID(), err)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.Email, err)
		}
	}
	return nil
}

// WriteBody writes t's rows (no headers) to every participant's spreadsheet.
func (d *Distributor) WriteBody(ctx context.Context, t models.Table, fn Transform) error {
	runID := d.begin("write_body")
	for _, p := range d.roster.Participants() {
		data, err := d.payload(p, t, fn)
		if err != nil {
			return err
		}
		if err := d.each(ctx, runID, "write_body", p.Email, func(ctx context.Context, doc Document) error {
			return doc.WriteBody(ctx, data)
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeaders writes t's column labels to every participant's spreadsheet.
func (d *Distributor) WriteHeaders(ctx context.Context, t models.Table) error {
	runID := d.begin("write_headers")
	for _, email := range d.roster.Emails() {
		if err := d.each(ctx, runID, "write_headers", email, func(ctx context.Context, doc Document) error {
			return doc.WriteHeaders(ctx, t)
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteComment writes comment at (row, column), both 1-based, in every
// participant's spreadsheet.
func (d *Distributor) WriteComment(ctx context.Context, comment string, row, column int) error {
	if row < 1 || column < 1 {
		return fmt.Errorf("comment cell (%d, %d) is out of range", row, column)
	}
	runID := d.begin("write_comment")
	for _, email := range d.roster.Emails() {
		if err := d.each(ctx, runID, "write_comment", email, func(ctx context.Context, doc Document) error {
			return doc.WriteComment(ctx, comment, row, column)
		}); err != nil {
			return err
		}
	}
	return nil
}

// each resolves email's document and runs fn against it under the medium
// timeout, recording the outcome.
func (d *Distributor) each(ctx context.Context, runID, op, email string, fn func(context.Context, Document) error) error {
	doc, _, err := d.document(ctx, runID, email)
	if err != nil {
		return err
	}
	wctx, cancel := d.to.MediumCtx(ctx)
	err = fn(wctx, doc)
	cancel()
	d.audit.DocumentAction(ctx, runID, audit.EventDocumentWritten, op, email, doc.ID(), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, email, err)
	}
	return nil
}

// Update merges t into every participant's spreadsheet and returns, keyed by
// email, the rows each spreadsheet held before the update.
func (d *Distributor) Update(ctx context.Context, t models.Table, opts UpdateOptions) (map[string]models.Table, error) {
	runID := d.begin("update")
	found := make(map[string]models.Table, d.roster.Len())
	for _, p := range d.roster.Participants() {
		doc, _, err := d.document(ctx, runID, p.Email)
		if err != nil {
			return nil, err
		}
		data, err := d.payload(p, t, opts.Transform)
		if err != nil {
			return nil, err
		}
		uctx, cancel := d.to.LongCtx(ctx)
		prev, err := doc.Update(uctx, data, opts.Columns, opts.Comment, opts.Overwrite)
		cancel()
		d.audit.DocumentAction(ctx, runID, audit.EventDocumentUpdated, "update", p.Email, doc.ID(), err)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", p.Email, err)
		}
		found[p.Email] = prev
	}
	return found, nil
}

// Read collects every participant's spreadsheet keyed by display name
// (email when no name resolves). A name already taken gets Suffix appended,
// repeatedly, until it is unique.
func (d *Distributor) Read(ctx context.Context, names, useColumns []string) (map[string]models.Table, error) {
	runID := d.begin("read")
	data := make(map[string]models.Table, d.roster.Len())
	for _, p := range d.roster.Participants() {
		doc, _, err := d.document(ctx, runID, p.Email)
		if err != nil {
			return nil, err
		}
		rctx, cancel := d.to.MediumCtx(ctx)
		t, err := doc.Read(rctx, names, useColumns)
		cancel()
		d.audit.DocumentAction(ctx, runID, audit.EventDocumentRead, "read", p.Email, doc.ID(), err)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.Email, err)
		}

		handle, ok := roster.DisplayName(p)
		if !ok {
			handle = p.Email
		}
		for {
			if _, taken := data[handle]; !taken {
				break
			}
			handle += d.suffix
		}
		data[handle] = t
	}
	return data, nil
}
