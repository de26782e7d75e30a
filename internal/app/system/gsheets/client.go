// Package gsheets implements participant spreadsheets on Google Sheets,
// with sharing managed through Google Drive permissions.
//
// Worksheet layout: the first Header rows are the header block. Row 1,
// column A holds the comment (only when Header > 1) and the last header row
// holds the column labels. The body starts on the row after.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Defaults for new documents.
const (
	DefaultHeader    = 2
	DefaultWorksheet = "Sheet1"
)

// valueInput lets numbers and dates typed into the table keep their type in
// the sheet.
const valueInput = "USER_ENTERED"

var (
	ErrWorksheetNotFound   = errors.New("worksheet not found")
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrCommentNeedsHeader  = errors.New("a comment requires more than one header row")
	ErrNoPermission        = errors.New("permission has no id")
)

// Options tunes a Client.
type Options struct {
	// Header is the number of header rows used when a write does not say.
	Header int
	// AddMissingWorksheet makes Open add the worksheet to a spreadsheet
	// that lacks it instead of failing with ErrWorksheetNotFound.
	AddMissingWorksheet bool
}

// Client creates and opens spreadsheets. The Sheets and Drive services are
// built on first use and reused afterwards.
type Client struct {
	ts   oauth2.TokenSource
	opts []option.ClientOption
	cfg  Options
	log  *zap.Logger

	mu     sync.Mutex
	sheets *sheets.Service
	drive  *drive.Service
}

var (
	_ distributor.DocumentClient = (*Client)(nil)
	_ distributor.Document       = (*Document)(nil)
)

// New returns a Client that authenticates with ts. Extra client options are
// passed to both services.
func New(ts oauth2.TokenSource, cfg Options, logger *zap.Logger, opts ...option.ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Header < 1 {
		cfg.Header = DefaultHeader
	}
	return &Client{ts: ts, opts: opts, cfg: cfg, log: logger}
}

// NewWithServices returns a Client around already-authenticated services.
func NewWithServices(ss *sheets.Service, ds *drive.Service, cfg Options, logger *zap.Logger) *Client {
	c := New(nil, cfg, logger)
	c.sheets, c.drive = ss, ds
	return c
}

func (c *Client) services(ctx context.Context) (*sheets.Service, *drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheets != nil && c.drive != nil {
		return c.sheets, c.drive, nil
	}

	opts := append([]option.ClientOption(nil), c.opts...)
	if c.ts != nil {
		opts = append(opts, option.WithTokenSource(c.ts))
	}
	// The services outlive ctx, which only bounds the first call.
	sctx := context.WithoutCancel(ctx)

	if c.sheets == nil {
		ss, err := sheets.NewService(sctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("sheets service: %w", err)
		}
		c.sheets = ss
	}
	if c.drive == nil {
		ds, err := drive.NewService(sctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("drive service: %w", err)
		}
		c.drive = ds
	}
	c.log.Debug("google services ready")
	return c.sheets, c.drive, nil
}

// Create makes a spreadsheet titled title with a single worksheet.
func (c *Client) Create(ctx context.Context, title, worksheet string) (distributor.Document, error) {
	return c.create(ctx, title, worksheet)
}

func (c *Client) create(ctx context.Context, title, worksheet string) (*Document, error) {
	ss, ds, err := c.services(ctx)
	if err != nil {
		return nil, err
	}
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	created, err := ss.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: worksheet}},
		},
	}).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet %q: %w", title, err)
	}
	c.log.Debug("spreadsheet created",
		zap.String("sheet_id", created.SpreadsheetId),
		zap.String("title", title))
	return c.document(ss, ds, created.SpreadsheetId, worksheet), nil
}

// Open returns the spreadsheet id after checking it has worksheet.
func (c *Client) Open(ctx context.Context, id, worksheet string) (distributor.Document, error) {
	return c.open(ctx, id, worksheet)
}

func (c *Client) open(ctx context.Context, id, worksheet string) (*Document, error) {
	ss, ds, err := c.services(ctx)
	if err != nil {
		return nil, err
	}
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	ok, err := c.hasWorksheet(ctx, ss, id, worksheet)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !c.cfg.AddMissingWorksheet {
			return nil, fmt.Errorf("%w: %q in %s", ErrWorksheetNotFound, worksheet, id)
		}
		if err := c.addWorksheet(ctx, ss, id, worksheet); err != nil {
			return nil, err
		}
	}
	return c.document(ss, ds, id, worksheet), nil
}

func (c *Client) document(ss *sheets.Service, ds *drive.Service, id, worksheet string) *Document {
	return &Document{
		sheets:    ss,
		drive:     ds,
		id:        id,
		worksheet: worksheet,
		header:    c.cfg.Header,
		log:       c.log,
	}
}

func (c *Client) hasWorksheet(ctx context.Context, ss *sheets.Service, id, worksheet string) (bool, error) {
	got, err := ss.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return false, fmt.Errorf("%w: %s", ErrSpreadsheetNotFound, id)
		}
		return false, fmt.Errorf("get spreadsheet %s: %w", id, err)
	}
	for _, s := range got.Sheets {
		if s.Properties != nil && s.Properties.Title == worksheet {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) addWorksheet(ctx context.Context, ss *sheets.Service, id, worksheet string) error {
	_, err := ss.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: worksheet}}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add worksheet %q to %s: %w", worksheet, id, err)
	}
	c.log.Info("added missing worksheet", zap.String("sheet_id", id), zap.String("worksheet", worksheet))
	return nil
}

// ReadWorksheet reads a whole worksheet whose first row holds the column
// labels. It is used to load a roster kept in a spreadsheet.
func (c *Client) ReadWorksheet(ctx context.Context, spreadsheetID, worksheet string) (models.Table, error) {
	doc, err := c.open(ctx, spreadsheetID, worksheet)
	if err != nil {
		return models.Table{}, err
	}
	doc.header = 1
	return doc.Read(ctx, nil, nil)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
