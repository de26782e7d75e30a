package distributor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/assessor/internal/app/store/audit"
	"github.com/dalemusser/assessor/internal/domain/models"
)

// ErrNotShared is returned when a participant holds no permission on their
// spreadsheet and one was expected.
var ErrNotShared = errors.New("participant has no permission on the spreadsheet")

func validRole(role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: got %q", models.ErrInvalidRole, string(role))
	}
	return nil
}

func permissionFor(perms []models.Permission, email string) (models.Permission, bool) {
	for _, p := range perms {
		if strings.EqualFold(p.Email, email) {
			return p, true
		}
	}
	return models.Permission{}, false
}

// Share gives every participant role on their own spreadsheet. Participants
// who already hold a permission have it changed to role, without a
// notification; everyone else gets a new grant.
func (d *Distributor) Share(ctx context.Context, role models.Role, notify bool) error {
	if err := validRole(role); err != nil {
		return err
	}
	runID := d.begin("share")
	for _, email := range d.roster.Emails() {
		doc, _, err := d.document(ctx, runID, email)
		if err != nil {
			return err
		}

		sctx, cancel := d.to.MediumCtx(ctx)
		perms, err := doc.ShareList(sctx)
		if err != nil {
			cancel()
			return fmt.Errorf("list sharing for %s: %w", email, err)
		}
		event := audit.EventShareGranted
		if perm, has := permissionFor(perms, email); has {
			event = audit.EventShareModified
			err = doc.ShareModify(sctx, perm, role, false)
		} else {
			err = doc.Share(sctx, []string{email}, role, notify)
		}
		cancel()

		d.audit.Sharing(ctx, runID, event, email, doc.ID(), role.String(), err)
		if err != nil {
			return fmt.Errorf("share with %s: %w", email, err)
		}
	}
	return nil
}

// ShareDelete removes every participant's access to their spreadsheet.
// Participants without a permission are left alone.
func (d *Distributor) ShareDelete(ctx context.Context) error {
	runID := d.begin("share_delete")
	for _, email := range d.roster.Emails() {
		doc, _, err := d.document(ctx, runID, email)
		if err != nil {
			return err
		}

		sctx, cancel := d.to.MediumCtx(ctx)
		perms, err := doc.ShareList(sctx)
		if err != nil {
			cancel()
			return fmt.Errorf("list sharing for %s: %w", email, err)
		}
		perm, has := permissionFor(perms, email)
		if !has {
			cancel()
			continue
		}
		err = doc.ShareDelete(sctx, perm)
		cancel()

		d.audit.Sharing(ctx, runID, audit.EventShareRevoked, email, doc.ID(), "", err)
		if err != nil {
			return fmt.Errorf("unshare with %s: %w", email, err)
		}
	}
	return nil
}

// ShareModify changes every participant's role on their spreadsheet. A
// participant without a permission aborts the pass with ErrNotShared.
func (d *Distributor) ShareModify(ctx context.Context, role models.Role, notify bool) error {
	if err := validRole(role); err != nil {
		return err
	}
	runID := d.begin("share_modify")
	for _, email := range d.roster.Emails() {
		doc, _, err := d.document(ctx, runID, email)
		if err != nil {
			return err
		}
		sctx, cancel := d.to.MediumCtx(ctx)
		perms, err := doc.ShareList(sctx)
		if err != nil {
			cancel()
			return fmt.Errorf("list sharing for %s: %w", email, err)
		}
		perm, has := permissionFor(perms, email)
		if !has {
			cancel()
			err = fmt.Errorf("%w: %s on %s", ErrNotShared, email, doc.ID())
			d.audit.Sharing(ctx, runID, audit.EventShareModified, email, doc.ID(), role.String(), err)
			return err
		}
		err = doc.ShareModify(sctx, perm, role, notify)
		cancel()

		d.audit.Sharing(ctx, runID, audit.EventShareModified, email, doc.ID(), role.String(), err)
		if err != nil {
			return fmt.Errorf("modify sharing for %s: %w", email, err)
		}
	}
	return nil
}
