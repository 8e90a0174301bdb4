package datesync_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"datesync/internal/datesync"
	"datesync/internal/testutil"
)

const project = "proj-1"

func runJob(t *testing.T, svc *testutil.FakeService, opts datesync.Options) (datesync.Summary, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	job := datesync.New(svc, project, opts, &stdout, &stderr, nil)
	sum, err := job.Run(context.Background())
	return sum, stdout.String(), stderr.String(), err
}

func TestRun_BothBoundsShift(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", testutil.Date("2024-01-10"), testutil.Date("2024-01-20"))
	svc.AddSubtask("P", "S1", "One", testutil.Date("2024-01-05"), testutil.Date("2024-01-15"))
	svc.AddSubtask("P", "S2", "Two", testutil.Date("2024-01-12"), testutil.Date("2024-01-25"))

	sum, stdout, stderr, err := runJob(t, svc, datesync.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	if len(svc.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(svc.Updates))
	}
	u := svc.Updates[0]
	if u.TaskID != "P" || dateString(u.Update.StartOn) != "2024-01-05" || dateString(u.Update.DueOn) != "2024-01-25" {
		t.Errorf("unexpected update: %s start=%s due=%s", u.TaskID, dateString(u.Update.StartOn), dateString(u.Update.DueOn))
	}
	if sum.Updated != 1 || sum.Checked != 1 || sum.Found != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("expected a run ID")
	}
	if !strings.Contains(stdout, "-> Checking subtasks for 'Parent'...") {
		t.Errorf("expected checking line, got %q", stdout)
	}
	if !strings.Contains(stdout, "Synced dates for parent GID P to Start: 2024-01-05, Due: 2024-01-25.") {
		t.Errorf("expected synced line, got %q", stdout)
	}
}

func TestRun_OnlyDuePresent(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", testutil.Date("2024-01-05"), nil)
	svc.AddSubtask("P", "S1", "One", nil, testutil.Date("2024-01-15"))

	if _, _, _, err := runJob(t, svc, datesync.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(svc.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(svc.Updates))
	}
	u := svc.Updates[0].Update
	if u.StartOn != nil {
		t.Errorf("expected no start_on in payload, got %s", dateString(u.StartOn))
	}
	if dateString(u.DueOn) != "2024-01-15" {
		t.Errorf("expected due_on 2024-01-15, got %s", dateString(u.DueOn))
	}

	parent, _ := svc.Task("P")
	if dateString(parent.StartOn) != "2024-01-05" {
		t.Errorf("expected parent start untouched, got %s", dateString(parent.StartOn))
	}
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", testutil.Date("2024-01-10"), testutil.Date("2024-01-20"))
	svc.AddSubtask("P", "S1", "One", testutil.Date("2024-01-05"), testutil.Date("2024-01-15"))
	svc.AddSubtask("P", "S2", "Two", testutil.Date("2024-01-12"), testutil.Date("2024-01-25"))

	if _, _, _, err := runJob(t, svc, datesync.Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	sum, _, _, err := runJob(t, svc, datesync.Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(svc.Updates) != 1 {
		t.Errorf("expected no writes on second run, got %d total updates", len(svc.Updates))
	}
	if sum.Unchanged != 1 || sum.Updated != 0 {
		t.Errorf("unexpected second-run summary: %+v", sum)
	}
}

func TestRun_SkipsTasksWithoutSubtasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "A", "Leaf", testutil.Date("2024-01-10"), nil)
	svc.AddTask(project, "B", "Parent", nil, nil)
	svc.AddSubtask("B", "S1", "One", testutil.Date("2024-02-01"), nil)

	sum, _, _, err := runJob(t, svc, datesync.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(svc.SubtaskCalls) != 1 || svc.SubtaskCalls[0] != "B" {
		t.Errorf("expected subtasks fetched only for B, got %v", svc.SubtaskCalls)
	}
	for _, u := range svc.Updates {
		if u.TaskID == "A" {
			t.Error("task without subtasks must not be updated")
		}
	}
	if sum.Skipped != 1 || sum.Checked != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestRun_DisappearedBoundDoesNotUpdate(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", testutil.Date("2024-01-10"), testutil.Date("2024-01-20"))
	svc.AddSubtask("P", "S1", "Undated", nil, nil)

	sum, _, _, err := runJob(t, svc, datesync.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.Updates) != 0 {
		t.Errorf("expected no updates, got %d", len(svc.Updates))
	}
	if sum.Unchanged != 1 {
		t.Errorf("expected parent unchanged, got %+v", sum)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", nil, nil)
	svc.AddSubtask("P", "S1", "One", testutil.Date("2024-01-05"), testutil.Date("2024-01-15"))

	sum, stdout, _, err := runJob(t, svc, datesync.Options{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.Updates) != 0 {
		t.Errorf("expected no writes in dry run, got %d", len(svc.Updates))
	}
	if sum.Updated != 1 || sum.Outcomes[0].Status != datesync.WouldUpdate {
		t.Errorf("expected planned update, got %+v", sum)
	}
	if !strings.Contains(stdout, "Would sync dates for parent GID P") {
		t.Errorf("expected dry-run line, got %q", stdout)
	}
}

func TestRun_ListParentsFailureAborts(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListParentTasksErr = errors.New("connection refused")

	_, _, _, err := runJob(t, svc, datesync.Options{})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected list error, got %v", err)
	}
	if len(svc.SubtaskCalls) != 0 {
		t.Errorf("expected no subtask calls, got %v", svc.SubtaskCalls)
	}
}

func failingProject() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "A", "First", nil, nil)
	svc.AddSubtask("A", "A1", "a1", testutil.Date("2024-01-01"), nil)
	svc.AddTask(project, "B", "Second", nil, nil)
	svc.AddSubtask("B", "B1", "b1", testutil.Date("2024-02-01"), nil)
	svc.AddTask(project, "C", "Third", nil, nil)
	svc.AddSubtask("C", "C1", "c1", testutil.Date("2024-03-01"), nil)
	svc.ListSubtasksErr["A"] = errors.New("boom")
	svc.UpdateErr["B"] = errors.New("rejected")
	return svc
}

func TestRun_FailuresAreScopedToTask(t *testing.T) {
	svc := failingProject()

	sum, _, stderr, err := runJob(t, svc, datesync.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Failed != 2 || sum.Updated != 1 {
		t.Errorf("expected 2 failed and 1 updated, got %+v", sum)
	}
	if len(svc.Updates) != 1 || svc.Updates[0].TaskID != "C" {
		t.Errorf("expected only C updated, got %+v", svc.Updates)
	}
	if !strings.Contains(stderr, "error: 'First': list subtasks: boom") {
		t.Errorf("expected subtask failure on stderr, got %q", stderr)
	}
	if !strings.Contains(stderr, "error: 'Second': update dates: rejected") {
		t.Errorf("expected update failure on stderr, got %q", stderr)
	}
}

func TestRun_FailFastStopsAtFirstFailure(t *testing.T) {
	svc := failingProject()

	sum, _, _, err := runJob(t, svc, datesync.Options{FailFast: true})

	var taskErr *datesync.TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if taskErr.Task.ID != "A" {
		t.Errorf("expected failure on A, got %s", taskErr.Task.ID)
	}
	if len(svc.SubtaskCalls) != 1 {
		t.Errorf("expected processing to stop after A, got calls %v", svc.SubtaskCalls)
	}
	if len(svc.Updates) != 0 {
		t.Errorf("expected no updates, got %+v", svc.Updates)
	}
	if sum.Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", sum)
	}
}

func TestRun_QuietSuppressesProgressOnly(t *testing.T) {
	svc := failingProject()

	_, stdout, stderr, err := runJob(t, svc, datesync.Options{Quiet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
	if stderr == "" {
		t.Error("expected failures on stderr in quiet mode")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(project, "P", "Parent", nil, nil)
	svc.AddSubtask("P", "S1", "One", testutil.Date("2024-01-05"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := datesync.New(svc, project, datesync.Options{}, nil, nil, nil)
	_, err := job.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(svc.SubtaskCalls) != 0 {
		t.Errorf("expected no subtask calls, got %v", svc.SubtaskCalls)
	}
}

func TestStatusString(t *testing.T) {
	if datesync.Updated.String() != "updated" || datesync.Failed.String() != "failed" {
		t.Error("unexpected status names")
	}
}
