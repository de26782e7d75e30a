package distributor

import (
	"context"

	"github.com/dalemusser/assessor/internal/domain/models"
)

// DocumentClient creates and reopens participant spreadsheets.
// Implementations may authenticate lazily on first use and must cache the
// resulting session for later calls.
type DocumentClient interface {
	// Create makes a new spreadsheet titled title with one worksheet.
	Create(ctx context.Context, title, worksheet string) (Document, error)
	// Open reopens an existing spreadsheet by its remote ID.
	Open(ctx context.Context, id, worksheet string) (Document, error)
}

// Document is a handle to one participant's spreadsheet.
type Document interface {
	ID() string

	// Write writes headers, body and (when non-empty) a comment. header is
	// the number of header rows; zero means the document's default.
	Write(ctx context.Context, t models.Table, header int, comment string) error
	WriteHeaders(ctx context.Context, t models.Table) error
	WriteBody(ctx context.Context, t models.Table) error
	WriteComment(ctx context.Context, comment string, row, column int) error

	// Read returns the worksheet body. names, when given, replace the
	// header labels; useColumns, when given, selects a subset of columns.
	Read(ctx context.Context, names, useColumns []string) (models.Table, error)

	// Update merges t into the worksheet, matching rows on the first
	// column and touching only columns (all when empty). It returns the
	// table that was in the worksheet before the update.
	Update(ctx context.Context, t models.Table, columns []string, comment string, overwrite bool) (models.Table, error)

	Share(ctx context.Context, emails []string, role models.Role, notify bool) error
	ShareList(ctx context.Context) ([]models.Permission, error)
	// ShareModify and ShareDelete act on a permission returned by ShareList.
	ShareModify(ctx context.Context, perm models.Permission, role models.Role, notify bool) error
	ShareDelete(ctx context.Context, perm models.Permission) error
}
