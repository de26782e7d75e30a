// Package distributor keeps one remote spreadsheet per roster participant
// and runs bulk operations across all of them.
//
// The participant -> spreadsheet mapping is loaded from a KeyStore at
// construction and saved in full after every create or delete. Bulk
// operations walk the roster in order, one participant at a time; the first
// remote error aborts the pass and is returned to the caller. A Distributor
// is not safe for concurrent use.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/app/system/timeouts"
	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultSuffix is appended to duplicate display names in Read.
const DefaultSuffix = "1"

// ErrNotParticipant is returned for an email that is not on the roster.
var ErrNotParticipant = errors.New("not a roster participant")

// Config configures a Distributor.
type Config struct {
	Roster *roster.Roster
	Store  sheetkeys.KeyStore
	Client DocumentClient

	// Title is the base title for created spreadsheets; the participant's
	// display name is appended.
	Title string
	// Worksheet names the worksheet created in, and opened from, each
	// participant spreadsheet.
	Worksheet string
	// Suffix disambiguates duplicate display names in Read. Empty means
	// DefaultSuffix.
	Suffix string

	Audit    *auditlog.Logger
	Timeouts timeouts.Timeouts
	Logger   *zap.Logger
}

// Distributor maps roster participants to their spreadsheets.
type Distributor struct {
	roster    *roster.Roster
	store     sheetkeys.KeyStore
	client    DocumentClient
	title     string
	worksheet string
	suffix    string

	audit *auditlog.Logger
	to    timeouts.Timeouts
	log   *zap.Logger

	keys map[string]string
}

// New loads the stored mapping and drops entries whose email is no longer
// on the roster.
func New(ctx context.Context, cfg Config) (*Distributor, error) {
	if cfg.Roster == nil {
		return nil, fmt.Errorf("distributor: roster is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("distributor: key store is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("distributor: document client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}

	d := &Distributor{
		roster:    cfg.Roster,
		store:     cfg.Store,
		client:    cfg.Client,
		title:     cfg.Title,
		worksheet: cfg.Worksheet,
		suffix:    cfg.Suffix,
		audit:     cfg.Audit,
		to:        cfg.Timeouts,
		log:       cfg.Logger,
	}

	sctx, cancel := d.to.StoreCtx(ctx)
	keys, err := cfg.Store.Load(sctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("load sheet keys: %w", err)
	}
	if keys == nil {
		keys = map[string]string{}
	}

	var purged []string
	d.keys, purged = d.canonicalKeys(keys)
	if len(purged) > 0 {
		d.log.Info("dropped sheet keys for participants no longer on the roster",
			zap.Int("count", len(purged)),
			zap.Strings("emails", purged))
		d.audit.EntriesPurged(ctx, purged)
	}
	return d, nil
}

// canonicalKeys rewrites stored emails to their roster spelling and returns
// the stored emails that match no participant. When several stored emails
// name the same participant, the one already in roster form wins, otherwise
// the first in sorted order.
func (d *Distributor) canonicalKeys(stored map[string]string) (map[string]string, []string) {
	emails := make([]string, 0, len(stored))
	for email := range stored {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	keys := make(map[string]string, len(stored))
	from := make(map[string]string, len(stored))
	var purged []string
	for _, email := range emails {
		p, ok := d.roster.Lookup(email)
		if !ok {
			purged = append(purged, email)
			continue
		}
		if prev, clash := from[p.Email]; clash {
			if prev == p.Email || email != p.Email {
				d.log.Warn("ignoring duplicate sheet key",
					zap.String("email", p.Email),
					zap.String("kept", prev),
					zap.String("ignored", email),
					zap.String("ignored_sheet_id", stored[email]))
				continue
			}
			d.log.Warn("ignoring duplicate sheet key",
				zap.String("email", p.Email),
				zap.String("kept", email),
				zap.String("ignored", prev),
				zap.String("ignored_sheet_id", keys[p.Email]))
		}
		keys[p.Email] = stored[email]
		from[p.Email] = email
	}
	return keys, purged
}

// Roster returns the participant list.
func (d *Distributor) Roster() *roster.Roster { return d.roster }

// Keys returns a copy of the current mapping.
func (d *Distributor) Keys() map[string]string {
	out := make(map[string]string, len(d.keys))
	for k, v := range d.keys {
		out[k] = v
	}
	return out
}

// Exists reports whether a spreadsheet is already mapped for email. It never
// creates one.
func (d *Distributor) Exists(email string) bool {
	_, ok := d.keys[d.key(email)]
	return ok
}

// Title returns the title a newly created spreadsheet for p would get.
func (d *Distributor) Title(p models.Participant) string {
	name, ok := roster.DisplayName(p)
	if !ok {
		return d.title
	}
	return d.title + " " + name
}

// Document returns email's spreadsheet, creating and recording one if none
// is mapped yet.
func (d *Distributor) Document(ctx context.Context, email string) (Document, error) {
	doc, _, err := d.document(ctx, "", email)
	return doc, err
}

func (d *Distributor) document(ctx context.Context, runID, email string) (Document, bool, error) {
	p, ok := d.roster.Lookup(email)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrNotParticipant, email)
	}

	if id, ok := d.keys[p.Email]; ok {
		octx, cancel := d.to.ShortCtx(ctx)
		defer cancel()
		doc, err := d.client.Open(octx, id, d.worksheet)
		if err != nil {
			return nil, false, fmt.Errorf("open spreadsheet %s for %s: %w", id, p.Email, err)
		}
		return doc, false, nil
	}

	title := d.Title(p)
	cctx, cancel := d.to.LongCtx(ctx)
	doc, err := d.client.Create(cctx, title, d.worksheet)
	cancel()
	if err != nil {
		return nil, false, fmt.Errorf("create spreadsheet for %s: %w", p.Email, err)
	}

	d.keys[p.Email] = doc.ID()
	d.log.Info("created participant spreadsheet",
		zap.String("email", p.Email),
		zap.String("sheet_id", doc.ID()),
		zap.String("title", title))
	d.audit.DocumentCreated(ctx, runID, p.Email, doc.ID(), title)

	if err := d.persist(ctx); err != nil {
		return nil, true, err
	}
	return doc, true, nil
}

// Delete forgets email's spreadsheet and saves the mapping. The remote
// spreadsheet and its sharing are left untouched.
func (d *Distributor) Delete(ctx context.Context, email string) error {
	key := d.key(email)
	id, ok := d.keys[key]
	if !ok {
		return nil
	}
	delete(d.keys, key)
	d.log.Info("deleted sheet key", zap.String("email", key), zap.String("sheet_id", id))
	d.audit.EntryDeleted(ctx, key, id)
	return d.persist(ctx)
}

func (d *Distributor) persist(ctx context.Context) error {
	sctx, cancel := d.to.StoreCtx(ctx)
	defer cancel()
	if err := d.store.Save(sctx, d.keys); err != nil {
		return fmt.Errorf("save sheet keys: %w", err)
	}
	return nil
}

// key canonicalises email the same way the roster does.
func (d *Distributor) key(email string) string {
	if p, ok := d.roster.Lookup(email); ok {
		return p.Email
	}
	return email
}
