package commands

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/system/notebooks"
	"github.com/spf13/pflag"
)

func init() {
	register(&Command{
		Name:     "download",
		Args:     "<notebook>",
		Synopsis: "Download a lab notebook for a course into ./<course>/",
		Bare:     true,
		Setup:    setupDownload,
	})
}

func setupDownload(fs *pflag.FlagSet) runFunc {
	course := fs.String("course", "", "Course short name (required)")
	repo := fs.String("repo", notebooks.DefaultRepo, "GitHub repository path holding the lab classes")
	dir := fs.String("dir", ".", "Directory the course folder is created in")
	baseURL := fs.String("base-url", notebooks.DefaultBaseURL, "Raw content host")
	_ = fs.MarkHidden("base-url")

	return func(ctx context.Context, env *Env, args []string) error {
		if err := needArgs(args, 1, "one notebook name"); err != nil {
			return err
		}
		if *course == "" {
			return fmt.Errorf("%w: --course is required", ErrUsage)
		}
		d := notebooks.New(*repo, env.Log)
		d.BaseURL = *baseURL
		path, err := d.Download(ctx, *course, args[0], *dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "saved %s\n", path)
		return nil
	}
}
