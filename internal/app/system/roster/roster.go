// Package roster loads the participant list that documents are distributed
// to and resolves participant display names.
//
// A roster is read once, from a delimited file or from a remote worksheet,
// and is immutable afterwards.
package roster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	norm "github.com/dalemusser/assessor/internal/app/system/normalize"
	"github.com/dalemusser/assessor/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// GmailColumn is the header Google Forms uses for the respondent address.
// Remote rosters rename it to EmailColumn.
const GmailColumn = "Gmail Address"

// Roster is an ordered, immutable list of participants keyed by email.
type Roster struct {
	participants []models.Participant
	byEmail      map[string]int
}

// New builds a roster from already-validated participants. Emails must be
// unique after normalisation.
func New(participants []models.Participant) (*Roster, error) {
	r := &Roster{
		participants: make([]models.Participant, 0, len(participants)),
		byEmail:      make(map[string]int, len(participants)),
	}
	for _, p := range participants {
		p.Email = norm.Email(p.Email)
		if p.Email == "" {
			return nil, fmt.Errorf("participant with empty email")
		}
		if _, dup := r.byEmail[p.Email]; dup {
			return nil, fmt.Errorf("duplicate participant %q", p.Email)
		}
		r.byEmail[p.Email] = len(r.participants)
		r.participants = append(r.participants, p)
	}
	return r, nil
}

// Participants returns the roster in its original order.
func (r *Roster) Participants() []models.Participant {
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// Emails returns the participant emails in roster order.
func (r *Roster) Emails() []string {
	out := make([]string, len(r.participants))
	for i, p := range r.participants {
		out[i] = p.Email
	}
	return out
}

// Len returns the number of participants.
func (r *Roster) Len() int { return len(r.participants) }

// Contains reports whether email belongs to the roster.
func (r *Roster) Contains(email string) bool {
	_, ok := r.byEmail[norm.Email(email)]
	return ok
}

// Lookup returns the participant with the given email.
func (r *Roster) Lookup(email string) (models.Participant, bool) {
	i, ok := r.byEmail[norm.Email(email)]
	if !ok {
		return models.Participant{}, false
	}
	return r.participants[i], true
}

// Source describes where the roster lives: either a file (Path) or a
// worksheet in a remote spreadsheet (SpreadsheetKey + WorksheetName).
type Source struct {
	Path           string
	Separator      rune
	SpreadsheetKey string
	WorksheetName  string
}

// Remote reports whether the source names a remote worksheet.
func (s Source) Remote() bool {
	return s.SpreadsheetKey != "" || s.WorksheetName != ""
}

// Validate rejects descriptors that are neither a path nor a complete
// remote worksheet reference.
func (s Source) Validate() error {
	switch {
	case s.Remote() && s.Path != "":
		return fmt.Errorf("%w: both a file and a spreadsheet were given", ErrBadSource)
	case s.Remote():
		if strings.TrimSpace(s.SpreadsheetKey) == "" || strings.TrimSpace(s.WorksheetName) == "" {
			return fmt.Errorf("%w: spreadsheet_key and worksheet_name are both required", ErrBadSource)
		}
		return nil
	case strings.TrimSpace(s.Path) == "":
		return ErrBadSource
	}
	return nil
}

// TableReader reads a whole worksheet as a table. The remote document
// client satisfies it.
type TableReader interface {
	ReadWorksheet(ctx context.Context, spreadsheetID, worksheet string) (models.Table, error)
}

// Load reads the roster described by src. tr is only consulted for remote
// sources and may be nil otherwise.
func Load(ctx context.Context, src Source, tr TableReader) (*Roster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if src.Remote() {
		if tr == nil {
			return nil, fmt.Errorf("%w: no spreadsheet client for remote roster", ErrBadSource)
		}
		return LoadRemote(ctx, src.SpreadsheetKey, src.WorksheetName, tr)
	}
	opts := DefaultParseOptions()
	if src.Separator != 0 {
		opts.Separator = src.Separator
	}
	return LoadFile(src.Path, opts)
}

// LoadFile reads a delimited roster file.
func LoadFile(path string, opts ParseOptions) (*Roster, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	res, err := ParseCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if res.HasErrors() {
		return nil, &ParseError{Source: path, Errors: res.Errors}
	}
	return New(res.Participants)
}

// LoadRemote reads the roster from a worksheet, renaming the Gmail Address
// column to Email.
func LoadRemote(ctx context.Context, spreadsheetID, worksheet string, tr TableReader) (*Roster, error) {
	t, err := tr.ReadWorksheet(ctx, spreadsheetID, worksheet)
	if err != nil {
		return nil, fmt.Errorf("read roster worksheet %q: %w", worksheet, err)
	}
	t = t.Clone()
	for i, c := range t.Columns {
		if text.Fold(norm.Header(c)) == text.Fold(GmailColumn) {
			t.Columns[i] = EmailColumn
		}
	}

	// Row 1 of the worksheet is the header.
	res, err := ParseTable(t, 2)
	if err != nil {
		return nil, fmt.Errorf("parse roster worksheet %q: %w", worksheet, err)
	}
	if res.HasErrors() {
		return nil, &ParseError{Source: spreadsheetID + "/" + worksheet, Errors: res.Errors}
	}
	return New(res.Participants)
}
