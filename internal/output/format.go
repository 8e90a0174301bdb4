// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"datesync/internal/service"
)

// Counts are the per-run totals printed in the summary line.
type Counts struct {
	Found     int
	Checked   int
	Skipped   int
	Unchanged int
	Updated   int
	Failed    int
}

// FormatStart prints the run banner.
func FormatStart(w io.Writer, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "Starting parent task date sync (dry run)...")
		return
	}
	fmt.Fprintln(w, "Starting parent task date sync...")
}

// FormatFound prints how many open tasks the project returned.
func FormatFound(w io.Writer, n int) {
	fmt.Fprintf(w, "Found %d non-completed parent tasks to check.\n", n)
}

// FormatChecking prints the line for a parent whose subtasks are being read.
// Format: "-> Checking subtasks for '{NAME}'...\n"
func FormatChecking(w io.Writer, name string) {
	fmt.Fprintf(w, "-> Checking subtasks for '%s'...\n", normalizeName(name))
}

// FormatSynced prints the dates written (or planned) for a parent.
// Absent bounds print as "none".
func FormatSynced(w io.Writer, taskID string, update service.DateUpdate, dryRun bool) {
	verb := "Synced"
	if dryRun {
		verb = "Would sync"
	}
	fmt.Fprintf(w, "  - %s dates for parent GID %s to Start: %s, Due: %s.\n",
		verb, taskID, service.FormatDate(update.StartOn), service.FormatDate(update.DueOn))
}

// FormatFailed prints a per-task failure.
func FormatFailed(w io.Writer, name string, err error) {
	fmt.Fprintf(w, "error: '%s': %v\n", normalizeName(name), err)
}

// FormatSummary prints the run totals.
func FormatSummary(w io.Writer, c Counts, dryRun bool) {
	updated := "updated"
	if dryRun {
		updated = "would update"
	}
	fmt.Fprintf(w, "Checked %d of %d tasks: %d %s, %d unchanged, %d failed.\n",
		c.Checked, c.Found, c.Updated, updated, c.Unchanged, c.Failed)
}

// FormatDone prints the closing line of a run.
func FormatDone(w io.Writer) {
	fmt.Fprintln(w, "Date sync check complete.")
}

// normalizeName normalizes a task name for display.
// - Empty or whitespace-only names become "(untitled)"
// - Newlines are replaced with spaces
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")

	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}
