package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dalemusser/assessor/internal/app/system/tables"
	"github.com/spf13/pflag"
)

func init() {
	register(&Command{
		Name:     "read",
		Synopsis: "Collect every participant's spreadsheet into one CSV file per participant",
		Google:   true,
		Setup:    setupRead,
	})
}

func setupRead(fs *pflag.FlagSet) runFunc {
	names := fs.String("names", "", "Comma separated labels replacing the header row")
	columns := fs.String("columns", "", "Comma separated subset of columns to keep")
	out := fs.String("out", "responses", "Directory the CSV files are written to")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		data, err := d.Read(ctx, splitList(*names), splitList(*columns))
		if err != nil {
			return err
		}

		handles := make([]string, 0, len(data))
		for h := range data {
			handles = append(handles, h)
		}
		sort.Strings(handles)
		for _, h := range handles {
			if err := tables.WriteFile(filepath.Join(*out, safeFileName(h)+".csv"), data[h], ','); err != nil {
				return err
			}
		}
		fmt.Fprintf(env.Out, "read %d spreadsheets into %s\n", len(handles), *out)
		return nil
	}
}

// safeFileName replaces path separators so a display name can be a file
// name.
func safeFileName(s string) string {
	b := []rune(s)
	for i, r := range b {
		switch r {
		case '/', '\\', ':', 0:
			b[i] = '_'
		}
	}
	return string(b)
}
