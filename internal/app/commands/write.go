package commands

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/app/system/tables"
	"github.com/spf13/pflag"
)

func init() {
	register(&Command{
		Name:     "write",
		Args:     "<table.csv>",
		Synopsis: "Write a table to every participant's spreadsheet, creating spreadsheets as needed",
		Google:   true,
		Setup:    setupWrite,
	})
	register(&Command{
		Name:     "write-body",
		Args:     "<table.csv>",
		Synopsis: "Write only the rows of a table below the header block",
		Google:   true,
		Setup:    setupWriteBody,
	})
	register(&Command{
		Name:     "write-headers",
		Args:     "<table.csv>",
		Synopsis: "Write only the column labels of a table",
		Google:   true,
		Setup:    setupWriteHeaders,
	})
	register(&Command{
		Name:     "write-comment",
		Args:     "<comment>",
		Synopsis: "Write a comment into one cell of every spreadsheet",
		Google:   true,
		Setup:    setupWriteComment,
	})
}

func addSepFlag(fs *pflag.FlagSet) *string {
	return fs.String("sep", ",", "Delimiter of the table file")
}

func sepRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ','
}

func setupWrite(fs *pflag.FlagSet) runFunc {
	header := fs.Int("header", 0, "Header rows above the body (0 uses header_rows)")
	comment := fs.String("comment", "", "Comment for the top-left cell (needs more than one header row)")
	overwrite := fs.Bool("overwrite", false, "Also write to participants who already have a spreadsheet")
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
		err = d.Write(ctx, t, distributor.WriteOptions{
			Header:    *header,
			Comment:   *comment,
			Transform: fillTransform(specs),
			Overwrite: *overwrite,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "wrote %d rows for %d participants\n", len(t.Rows), d.Roster().Len())
		return nil
	}
}

func setupWriteBody(fs *pflag.FlagSet) runFunc {
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
		return d.WriteBody(ctx, t, fillTransform(specs))
	}
}

func setupWriteHeaders(fs *pflag.FlagSet) runFunc {
	sep := addSepFlag(fs)

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 1, "one table file"); err != nil {
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
		return d.WriteHeaders(ctx, t)
	}
}

func setupWriteComment(fs *pflag.FlagSet) runFunc {
	row := fs.Int("row", 1, "Row of the comment cell (1-based)")
	column := fs.Int("column", 1, "Column of the comment cell (1-based)")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 1, "the comment text"); err != nil {
			return err
		}
		d, err := env.Distributor(ctx)
		if err != nil {
			return err
		}
		return d.WriteComment(ctx, args[0], *row, *column)
	}
}
