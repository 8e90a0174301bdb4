package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"datesync/internal/commands"
	"datesync/internal/config"
	"datesync/internal/exitcode"
	"datesync/internal/service"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "sync"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	getenv   func(string) string
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
// getenv looks up environment variables; nil means os.Getenv.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, getenv func(string) string) *Dispatcher {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		getenv:   getenv,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to the default command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var timeout time.Duration
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.DurationVar(&timeout, "timeout", 0, "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		if strings.HasPrefix(errStr, "flag needs an argument:") {
			fmt.Fprintf(errOut, "error: %s\n", errStr)
			return exitcode.UserError
		}

		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return exitcode.UserError
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return exitcode.UserError
	}

	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}
	if timeout < 0 {
		fmt.Fprintf(errOut, "error: invalid timeout: %s\n", timeout)
		return exitcode.UserError
	}

	// Commands without a service run on defaults when the settings file is bad
	cfg, err := config.Load(configDir, d.getenv)
	if err != nil {
		if cmd.NeedsService() {
			fmt.Fprintf(errOut, "error: configuration error: %s\n", err)
			return exitcode.ConfigError
		}
		cfg = config.Default(configDir)
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	if timeout > 0 {
		cfg.Timeout = timeout
	}

	// Fail before any network call when credentials are missing
	var svc service.Service
	if cmd.NeedsService() {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(errOut, "error: configuration error: %s\n", err)
			return exitcode.ConfigError
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: configuration error: no task service configured")
			return exitcode.ConfigError
		}
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: configuration error: %s\n", err)
			return exitcode.ConfigError
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}
