package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"datesync/internal/config"
	"datesync/internal/datesync"
	"datesync/internal/exitcode"
	"datesync/internal/output"
	"datesync/internal/service"
)

func init() {
	Register(&SyncCmd{})
}

// SyncCmd implements the sync command, the default when no command is given.
type SyncCmd struct {
	dryRun   bool
	failFast bool
}

// SetDryRun sets the dry-run flag (for testing).
func (c *SyncCmd) SetDryRun(v bool) {
	c.dryRun = v
}

// SetFailFast sets the fail-fast flag (for testing).
func (c *SyncCmd) SetFailFast(v bool) {
	c.failFast = v
}

func (c *SyncCmd) Name() string       { return "sync" }
func (c *SyncCmd) Aliases() []string  { return nil }
func (c *SyncCmd) Synopsis() string   { return "Sync parent task dates with their subtasks" }
func (c *SyncCmd) Usage() string      { return "datesync sync [--dry-run] [--fail-fast]" }
func (c *SyncCmd) NeedsService() bool { return true }

func (c *SyncCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.dryRun, "dry-run", false, "")
	fs.BoolVar(&c.failFast, "fail-fast", false, "")
}

// Run executes one sync pass. API failures are reported on errOut but the
// command still exits with Success; only bad usage exits non-zero.
func (c *SyncCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	opts := datesync.Options{
		DryRun:   cfg.DryRun || c.dryRun,
		FailFast: cfg.FailFast || c.failFast,
		Quiet:    cfg.Quiet,
	}
	logger := NewLogger(errOut, cfg.Debug)

	job := datesync.New(svc, cfg.ProjectID, opts, out, errOut, logger)
	sum, err := job.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(errOut, "error: interrupted")
		default:
			fmt.Fprintf(errOut, "error: API error: %v\n", err)
		}
	}

	if !cfg.Quiet {
		if sum.Found > 0 || sum.Checked > 0 {
			output.FormatSummary(out, sum.Counts(), opts.DryRun)
		}
		output.FormatDone(out)
	}
	return exitcode.Success
}

// NewLogger returns the diagnostic logger. Without debug it discards
// everything; user-facing errors are printed separately.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
