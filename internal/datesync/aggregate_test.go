package datesync_test

import (
	"testing"

	"cloud.google.com/go/civil"

	"datesync/internal/datesync"
	"datesync/internal/service"
	"datesync/internal/testutil"
)

func task(start, due string) service.Task {
	return service.Task{StartOn: testutil.Date(start), DueOn: testutil.Date(due)}
}

func dateString(d *civil.Date) string {
	return service.FormatDate(d)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		subtasks  []service.Task
		wantStart string
		wantDue   string
	}{
		{
			name:      "no subtasks",
			subtasks:  nil,
			wantStart: "none",
			wantDue:   "none",
		},
		{
			name:      "min start and max due",
			subtasks:  []service.Task{task("2024-01-05", "2024-01-15"), task("2024-01-12", "2024-01-25")},
			wantStart: "2024-01-05",
			wantDue:   "2024-01-25",
		},
		{
			name:      "order does not matter",
			subtasks:  []service.Task{task("2024-03-01", "2024-03-02"), task("2023-12-31", "2024-02-01"), task("2024-01-01", "2024-04-30")},
			wantStart: "2023-12-31",
			wantDue:   "2024-04-30",
		},
		{
			name:      "missing dates are ignored",
			subtasks:  []service.Task{task("", "2024-01-15"), task("2024-01-10", ""), task("", "")},
			wantStart: "2024-01-10",
			wantDue:   "2024-01-15",
		},
		{
			name:      "no start dates",
			subtasks:  []service.Task{task("", "2024-01-15")},
			wantStart: "none",
			wantDue:   "2024-01-15",
		},
		{
			name:      "no due dates",
			subtasks:  []service.Task{task("2024-01-15", ""), task("2024-01-14", "")},
			wantStart: "2024-01-14",
			wantDue:   "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := datesync.Aggregate(tt.subtasks)
			if dateString(got.Start) != tt.wantStart {
				t.Errorf("expected start %s, got %s", tt.wantStart, dateString(got.Start))
			}
			if dateString(got.Due) != tt.wantDue {
				t.Errorf("expected due %s, got %s", tt.wantDue, dateString(got.Due))
			}
		})
	}
}

func TestAggregate_DoesNotAliasSubtaskDates(t *testing.T) {
	subtasks := []service.Task{task("2024-01-05", "2024-01-15")}
	got := datesync.Aggregate(subtasks)

	*subtasks[0].StartOn = civil.Date{Year: 1999, Month: 1, Day: 1}
	if dateString(got.Start) != "2024-01-05" {
		t.Errorf("aggregate changed with subtask: %s", dateString(got.Start))
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		parent     service.Task
		rng        service.DateRange
		wantUpdate bool
		wantStart  string
		wantDue    string
	}{
		{
			name:       "both bounds shift",
			parent:     task("2024-01-10", "2024-01-20"),
			rng:        service.DateRange{Start: testutil.Date("2024-01-05"), Due: testutil.Date("2024-01-25")},
			wantUpdate: true,
			wantStart:  "2024-01-05",
			wantDue:    "2024-01-25",
		},
		{
			name:       "already in sync",
			parent:     task("2024-01-05", "2024-01-25"),
			rng:        service.DateRange{Start: testutil.Date("2024-01-05"), Due: testutil.Date("2024-01-25")},
			wantUpdate: false,
			wantStart:  "none",
			wantDue:    "none",
		},
		{
			name:       "only due present and parent has none",
			parent:     task("2024-01-05", ""),
			rng:        service.DateRange{Due: testutil.Date("2024-01-15")},
			wantUpdate: true,
			wantStart:  "none",
			wantDue:    "2024-01-15",
		},
		{
			name:       "vanished bounds never clear the parent",
			parent:     task("2024-01-05", "2024-01-25"),
			rng:        service.DateRange{},
			wantUpdate: false,
			wantStart:  "none",
			wantDue:    "none",
		},
		{
			name:       "no dated subtasks leave an undated parent alone",
			parent:     task("", ""),
			rng:        service.DateRange{},
			wantUpdate: false,
			wantStart:  "none",
			wantDue:    "none",
		},
		{
			name:       "one bound differs, payload carries both present bounds",
			parent:     task("2024-01-05", "2024-01-20"),
			rng:        service.DateRange{Start: testutil.Date("2024-01-05"), Due: testutil.Date("2024-01-25")},
			wantUpdate: true,
			wantStart:  "2024-01-05",
			wantDue:    "2024-01-25",
		},
		{
			name:       "start differs and due absent",
			parent:     task("2024-01-05", "2024-01-20"),
			rng:        service.DateRange{Start: testutil.Date("2024-01-02")},
			wantUpdate: true,
			wantStart:  "2024-01-02",
			wantDue:    "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, needed := datesync.Plan(tt.parent, tt.rng)
			if needed != tt.wantUpdate {
				t.Fatalf("expected needed=%v, got %v", tt.wantUpdate, needed)
			}
			if dateString(update.StartOn) != tt.wantStart {
				t.Errorf("expected start_on %s, got %s", tt.wantStart, dateString(update.StartOn))
			}
			if dateString(update.DueOn) != tt.wantDue {
				t.Errorf("expected due_on %s, got %s", tt.wantDue, dateString(update.DueOn))
			}
		})
	}
}
