package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"datesync/internal/config"
	"datesync/internal/exitcode"
	"datesync/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "datesync help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  datesync                                   Sync parent task dates (same as sync)
  datesync sync [common flags] [--dry-run] [--fail-fast]
  datesync help
  datesync version

Environment:
  ASANA_PAT        Personal access token (required)
  PROJECT_GID      Project to scan (required)
  ASANA_BASE_URL   API root (default https://app.asana.com/api/1.0)

Common flags:
  --config <dir>   Override config directory (holds config.yaml)
  --timeout <dur>  Per-request timeout, e.g. 10s
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
