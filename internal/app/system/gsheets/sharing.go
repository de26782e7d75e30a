package gsheets

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
)

const permissionFields = "nextPageToken, permissions(id,emailAddress,role,type)"

// Share grants role on the spreadsheet to each of emails. Granting owner
// transfers ownership.
func (d *Document) Share(ctx context.Context, emails []string, role models.Role, notify bool) error {
	for _, email := range emails {
		call := d.drive.Permissions.Create(d.id, &drive.Permission{
			Type:         "user",
			Role:         role.String(),
			EmailAddress: email,
		}).SendNotificationEmail(notify || role == models.RoleOwner).Context(ctx)
		if role == models.RoleOwner {
			call = call.TransferOwnership(true)
		}
		if _, err := call.Do(); err != nil {
			return fmt.Errorf("share %s with %s: %w", d.id, email, err)
		}
		d.log.Debug("permission granted",
			zap.String("sheet_id", d.id),
			zap.String("email", email),
			zap.String("role", role.String()))
	}
	return nil
}

// ShareList returns the user permissions on the spreadsheet.
func (d *Document) ShareList(ctx context.Context) ([]models.Permission, error) {
	var out []models.Permission
	err := d.drive.Permissions.List(d.id).Fields(permissionFields).Pages(ctx, func(pl *drive.PermissionList) error {
		for _, p := range pl.Permissions {
			if p.Type != "" && p.Type != "user" {
				continue
			}
			out = append(out, models.Permission{ID: p.Id, Email: p.EmailAddress, Role: models.Role(p.Role)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list permissions on %s: %w", d.id, err)
	}
	return out, nil
}

// ShareModify changes perm's role. Drive sends no notification for a role
// change other than an ownership transfer, so notify only matters there.
func (d *Document) ShareModify(ctx context.Context, perm models.Permission, role models.Role, notify bool) error {
	if perm.ID == "" {
		return fmt.Errorf("%w: %s on %s", ErrNoPermission, perm.Email, d.id)
	}
	call := d.drive.Permissions.Update(d.id, perm.ID, &drive.Permission{Role: role.String()}).Context(ctx)
	if role == models.RoleOwner {
		call = call.TransferOwnership(true)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("modify %s on %s: %w", perm.Email, d.id, err)
	}
	d.log.Debug("permission modified",
		zap.String("sheet_id", d.id),
		zap.String("email", perm.Email),
		zap.String("role", role.String()),
		zap.Bool("notify", notify))
	return nil
}

// ShareDelete removes perm.
func (d *Document) ShareDelete(ctx context.Context, perm models.Permission) error {
	if perm.ID == "" {
		return fmt.Errorf("%w: %s on %s", ErrNoPermission, perm.Email, d.id)
	}
	if err := d.drive.Permissions.Delete(d.id, perm.ID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unshare %s on %s: %w", perm.Email, d.id, err)
	}
	return nil
}
