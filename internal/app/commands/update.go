package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/app/system/tables"
	"github.com/spf13/pflag"
)

func init() {
	register(&Command{
		Name:     "update",
		Args:     "<table.csv>",
		Synopsis: "Merge a table into every spreadsheet, matching rows on the first column",
		Google:   true,
		Setup:    setupUpdate,
	})
}

func setupUpdate(fs *pflag.FlagSet) runFunc {
	columns := fs.String("columns", "", "Comma separated columns to update (default all but the first)")
	comment := fs.String("comment", "", "Comment for the top-left cell")
	overwrite := fs.Bool("overwrite", true, "Replace cells that already hold a value")
	previous := fs.String("previous", "", "Directory to save each spreadsheet's contents from before the update")
	sep := addSepFlag(fs)
	fill := addFillFlag(fs)

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 1, "one table file"); err != nil {
			return err
		}
		specs, err := parseFill(*fill)
		if err != nil {
			return err
		}
		t, err := tables.ReadFile(args[0], sepRune(*sep))
		if err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		found, err := d.Update(ctx, t, distributor.UpdateOptions{
			Columns:   splitList(*columns),
			Comment:   *comment,
			Transform: fillTransform(specs),
			Overwrite: *overwrite,
		})
		if err != nil {
			return err
		}
		if *previous != "" {
			for email, prev := range found {
				if err := tables.WriteFile(filepath.Join(*previous, email+".csv"), prev, ','); err != nil {
					return err
				}
			}
		}
		fmt.Fprintf(env.Out, "updated %d spreadsheets\n", len(found))
		return nil
	}
}
