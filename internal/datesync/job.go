package datesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"datesync/internal/output"
	"datesync/internal/service"
)

// Status is the result of processing one parent task.
type Status int

const (
	// Unchanged means the parent already matched its subtasks.
	Unchanged Status = iota
	// Updated means the parent dates were written.
	Updated
	// WouldUpdate means an update was planned but not written (dry run).
	WouldUpdate
	// Failed means fetching subtasks or writing the update failed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case WouldUpdate:
		return "would-update"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome records what happened to one parent task.
type Outcome struct {
	Task   service.Task
	Range  service.DateRange
	Update service.DateUpdate
	Status Status
	Err    error
}

// Summary describes a whole run.
type Summary struct {
	RunID     string
	Found     int // open tasks listed
	Checked   int // tasks with subtasks
	Skipped   int // tasks without subtasks
	Unchanged int
	Updated   int // includes planned updates in a dry run
	Failed    int
	Outcomes  []Outcome
}

// Options tunes a run.
type Options struct {
	// DryRun plans updates without writing them.
	DryRun bool

	// FailFast stops the run at the first failed task and returns its error.
	FailFast bool

	// Quiet suppresses progress lines.
	Quiet bool
}

// Job syncs the parent tasks of a single project.
type Job struct {
	svc       service.Service
	projectID string
	opts      Options
	out       io.Writer
	errOut    io.Writer
	logger    *slog.Logger
}

// New creates a Job. Progress lines go to out and per-task failures to
// errOut; any of out, errOut and logger may be nil.
func New(svc service.Service, projectID string, opts Options, out, errOut io.Writer, logger *slog.Logger) *Job {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Job{
		svc:       svc,
		projectID: projectID,
		opts:      opts,
		out:       out,
		errOut:    errOut,
		logger:    logger,
	}
}

// TaskError ties a failure to the parent task being processed.
type TaskError struct {
	Task service.Task
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s (%s): %v", e.Task.ID, e.Task.Name, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Run performs one fetch, aggregate and update pass over the project.
//
// A failure to list the project's tasks is returned immediately. Failures on
// a single parent are recorded in its Outcome and the run moves on, unless
// FailFast is set, in which case the first one is returned as a *TaskError.
// Parents are processed strictly one after another, with at most one update
// each.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := j.logger.With(slog.String("run", sum.RunID), slog.String("project", j.projectID))

	j.progress(func(w io.Writer) { output.FormatStart(w, j.opts.DryRun) })

	tasks, err := j.svc.ListParentTasks(ctx, j.projectID)
	if err != nil {
		logger.Error("list parent tasks", slog.Any("err", err))
		return sum, fmt.Errorf("list parent tasks: %w", err)
	}
	sum.Found = len(tasks)
	j.progress(func(w io.Writer) { output.FormatFound(w, len(tasks)) })

	parents := lo.Filter(tasks, func(t service.Task, _ int) bool {
		return t.NumSubtasks > 0
	})
	sum.Skipped = len(tasks) - len(parents)

	for _, parent := range parents {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		outcome := j.syncParent(ctx, logger, parent)
		sum.Checked++
		sum.Outcomes = append(sum.Outcomes, outcome)

		switch outcome.Status {
		case Unchanged:
			sum.Unchanged++
		case Updated, WouldUpdate:
			sum.Updated++
		case Failed:
			sum.Failed++
			if j.opts.FailFast {
				return sum, &TaskError{Task: parent, Err: outcome.Err}
			}
		}
	}

	logger.Info("sync finished",
		slog.Int("checked", sum.Checked),
		slog.Int("updated", sum.Updated),
		slog.Int("failed", sum.Failed))
	return sum, nil
}

func (j *Job) syncParent(ctx context.Context, logger *slog.Logger, parent service.Task) Outcome {
	outcome := Outcome{Task: parent}
	logger = logger.With(slog.String("task", parent.ID))

	j.progress(func(w io.Writer) { output.FormatChecking(w, parent.Name) })

	subtasks, err := j.svc.ListSubtasks(ctx, parent.ID)
	if err != nil {
		logger.Warn("list subtasks", slog.Any("err", err))
		outcome.Status = Failed
		outcome.Err = fmt.Errorf("list subtasks: %w", err)
		output.FormatFailed(j.errOut, parent.Name, outcome.Err)
		return outcome
	}

	outcome.Range = Aggregate(subtasks)
	logger.Debug("aggregated subtasks",
		slog.Int("subtasks", len(subtasks)),
		slog.String("earliest_start", service.FormatDate(outcome.Range.Start)),
		slog.String("latest_due", service.FormatDate(outcome.Range.Due)))

	update, needed := Plan(parent, outcome.Range)
	if !needed {
		outcome.Status = Unchanged
		return outcome
	}
	outcome.Update = update

	if j.opts.DryRun {
		outcome.Status = WouldUpdate
		j.progress(func(w io.Writer) { output.FormatSynced(w, parent.ID, update, true) })
		return outcome
	}

	if err := j.svc.UpdateTaskDates(ctx, parent.ID, update); err != nil {
		logger.Warn("update task dates", slog.Any("err", err))
		outcome.Status = Failed
		outcome.Err = fmt.Errorf("update dates: %w", err)
		output.FormatFailed(j.errOut, parent.Name, outcome.Err)
		return outcome
	}

	outcome.Status = Updated
	j.progress(func(w io.Writer) { output.FormatSynced(w, parent.ID, update, false) })
	return outcome
}

func (j *Job) progress(write func(w io.Writer)) {
	if j.opts.Quiet {
		return
	}
	write(j.out)
}

// Counts returns the totals of the run for display.
func (s Summary) Counts() output.Counts {
	return output.Counts{
		Found:     s.Found,
		Checked:   s.Checked,
		Skipped:   s.Skipped,
		Unchanged: s.Unchanged,
		Updated:   s.Updated,
		Failed:    s.Failed,
	}
}
