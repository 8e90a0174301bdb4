// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates the run completed. API failures during a sync run
	// are reported on stderr but still exit with Success.
	Success = 0

	// UserError indicates bad arguments or an unknown command.
	UserError = 1

	// ConfigError indicates missing environment variables or an unusable
	// settings file. Reported before any network call.
	ConfigError = 1
)
