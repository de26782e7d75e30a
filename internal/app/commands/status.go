package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func init() {
	register(&Command{
		Name:     "status",
		Synopsis: "List the roster with each participant's spreadsheet key",
		Setup:    setupStatus,
	})
	register(&Command{
		Name:     "forget",
		Args:     "<email>...",
		Synopsis: "Drop spreadsheet keys so the next write creates new spreadsheets",
		Setup:    setupForget,
	})
}

func setupStatus(fs *pflag.FlagSet) runFunc {
	missing := fs.Bool("missing", false, "Only list participants without a spreadsheet")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		keys := d.Keys()

		tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EMAIL\tNAME\tSPREADSHEET")
		with := 0
		for _, p := range d.Roster().Participants() {
			id, ok := keys[p.Email]
			if ok {
				with++
				if *missing {
					continue
				}
			} else {
				id = "-"
			}
			name, _ := roster.DisplayName(p)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Email, name, id)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "\n%d of %d participants have a spreadsheet\n", with, d.Roster().Len())
		return nil
	}
}

func setupForget(fs *pflag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: expected at least one email", ErrUsage)
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		for _, email := range args {
			if !d.Exists(email) {
				env.Log.Warn("no spreadsheet key to forget", zap.String("email", email))
				fmt.Fprintf(env.Out, "%s: no spreadsheet\n", email)
				continue
			}
			if err := d.Delete(ctx, email); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%s: forgotten\n", email)
		}
		return nil
	}
}
