// Package commands implements the assessor command line: one subcommand per
// distributor operation plus a few housekeeping commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dalemusser/assessor/internal/app/bootstrap"
	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("usage error")

// Env is what a command runs against.
type Env struct {
	Cfg    bootstrap.AppConfig
	Deps   bootstrap.Deps
	Log    *zap.Logger
	Out    io.Writer
	client distributor.DocumentClient
}

// Roster loads the configured roster.
func (e *Env) Roster(ctx context.Context) (*roster.Roster, error) {
	return bootstrap.LoadRoster(ctx, e.Cfg, e.Deps)
}

// Distributor loads the roster and the key mapping.
func (e *Env) Distributor(ctx context.Context) (*distributor.Distributor, error) {
	r, err := e.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewDistributor(ctx, e.Cfg, e.Deps, r, e.client, e.Log)
}

// runFunc executes a command with its remaining positional arguments.
type runFunc func(ctx context.Context, env *Env, args []string) error

// Command describes one subcommand.
type Command struct {
	Name     string
	Args     string // positional argument synopsis
	Synopsis string
	// Google marks commands that read or write spreadsheets.
	Google bool
	// Bare commands run without class configuration or backends.
	Bare bool
	// Setup registers the command's flags and returns its runner.
	Setup func(fs *pflag.FlagSet) runFunc
}

var registry = map[string]*Command{}

func register(c *Command) {
	if _, dup := registry[c.Name]; dup {
		panic("duplicate command " + c.Name)
	}
	registry[c.Name] = c
}

// Runner dispatches a command line.
type Runner struct {
	Layers bootstrap.Layers
	Stdout io.Writer
	Stderr io.Writer

	// Client replaces the Google spreadsheet client when set.
	Client distributor.DocumentClient
}

// Run parses args (without the program name) and runs the selected command.
func (r Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		r.usage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}
	cmd, ok := registry[args[0]]
	if !ok {
		r.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	fs := pflag.NewFlagSet("assessor "+cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(r.Stderr)
	configFile := fs.String("config", "", "Extra config file, loaded after the others")
	run := cmd.Setup(fs)
	if !cmd.Bare {
		bootstrap.BindFlags(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(r.Stderr, "Usage: assessor %s [flags] %s\n\n%s\n\nFlags:\n", cmd.Name, cmd.Args, cmd.Synopsis)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	logger := bootstrap.BootstrapLogger()
	env := &Env{Log: logger, Out: r.Stdout}
	if cmd.Bare {
		return run(ctx, env, fs.Args())
	}

	layers := r.Layers
	if *configFile != "" {
		layers.User = *configFile
	}
	cfg, err := bootstrap.LoadConfig(logger, layers, fs)
	if err != nil {
		return err
	}
	logger, err = bootstrap.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	if err := bootstrap.ValidateConfig(cfg, logger); err != nil {
		return err
	}

	deps, err := bootstrap.BuildDeps(ctx, cfg, bootstrap.BuildOptions{
		Google: (cmd.Google || cfg.RosterSource().Remote()) && r.Client == nil,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := deps.Timeouts.StoreCtx(context.Background())
		defer cancel()
		_ = bootstrap.Shutdown(sctx, deps, logger)
	}()

	switch {
	case r.Client != nil:
		env.client = r.Client
		if tr, ok := r.Client.(roster.TableReader); ok && deps.Tables == nil {
			deps.Tables = tr
		}
	case deps.Google != nil:
		env.client = deps.Google
	default:
		env.client = offline{}
	}
	env.Cfg, env.Deps, env.Log = cfg, deps, logger
	return run(ctx, env, fs.Args())
}

func (r Runner) usage() {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(r.Stderr, "Usage: assessor <command> [flags] [args]")
	fmt.Fprintln(r.Stderr)
	fmt.Fprintln(r.Stderr, "Commands:")
	tw := tabwriter.NewWriter(r.Stderr, 0, 4, 2, ' ', 0)
	for _, n := range names {
		c := registry[n]
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.Name, c.Args, c.Synopsis)
	}
	tw.Flush()
	fmt.Fprintln(r.Stderr)
	fmt.Fprintln(r.Stderr, "Run 'assessor <command> --help' for the flags of a command.")
}

// errOffline is returned if a command that does not use spreadsheets
// reaches one anyway.
var errOffline = errors.New("this command does not open spreadsheets")

type offline struct{}

func (offline) Create(context.Context, string, string) (distributor.Document, error) {
	return nil, errOffline
}

func (offline) Open(context.Context, string, string) (distributor.Document, error) {
	return nil, errOffline
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func needArgs(args []string, n int, what string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", ErrUsage, what)
	}
	return nil
}
