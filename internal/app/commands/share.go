package commands

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/domain/models"
	"github.com/spf13/pflag"
)

func init() {
	register(&Command{
		Name:     "share",
		Synopsis: "Share every participant's spreadsheet with that participant",
		Google:   true,
		Setup:    setupShare,
	})
	register(&Command{
		Name:     "unshare",
		Synopsis: "Revoke every participant's access to their spreadsheet",
		Google:   true,
		Setup:    setupUnshare,
	})
	register(&Command{
		Name:     "share-modify",
		Synopsis: "Change the role every participant holds on their spreadsheet",
		Google:   true,
		Setup:    setupShareModify,
	})
}

func parseRoleFlag(s string) (models.Role, error) {
	role, err := models.ParseRole(s)
	if err != nil {
		return "", fmt.Errorf("%w: --role: %w", ErrUsage, err)
	}
	return role, nil
}

func setupShare(fs *pflag.FlagSet) runFunc {
	role := fs.String("role", string(models.RoleWriter), "Role to grant: reader, writer or owner")
	notify := fs.Bool("notify", false, "Send Google's notification email")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		r, err := parseRoleFlag(*role)
		if err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		if err := d.Share(ctx, r, *notify); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "shared %d spreadsheets as %s\n", d.Roster().Len(), r)
		return nil
	}
}

func setupUnshare(fs *pflag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		return d.ShareDelete(ctx)
	}
}

func setupShareModify(fs *pflag.FlagSet) runFunc {
	role := fs.String("role", string(models.RoleReader), "New role: reader, writer or owner")
	notify := fs.Bool("notify", false, "Send Google's notification email")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		r, err := parseRoleFlag(*role)
		if err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		return d.ShareModify(ctx, r, *notify)
	}
}
