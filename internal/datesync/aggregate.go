// Package datesync keeps parent task dates in step with their subtasks.
//
// A run lists the open tasks of one project, and for every task that has
// subtasks computes the earliest subtask start and the latest subtask due
// date. When either present bound differs from the parent, the parent is
// updated with the present bounds. Bounds that no subtask supplies are never
// sent, so a parent date is never cleared.
package datesync

import (
	"cloud.google.com/go/civil"
	"github.com/samber/lo"

	"datesync/internal/service"
)

// Aggregate computes the date range spanned by subtasks. Start is the
// earliest present start date and Due the latest present due date; either is
// nil when no subtask has that date.
func Aggregate(subtasks []service.Task) service.DateRange {
	return lo.Reduce(subtasks, func(r service.DateRange, t service.Task, _ int) service.DateRange {
		if t.StartOn != nil && (r.Start == nil || t.StartOn.Before(*r.Start)) {
			r.Start = clone(t.StartOn)
		}
		if t.DueOn != nil && (r.Due == nil || t.DueOn.After(*r.Due)) {
			r.Due = clone(t.DueOn)
		}
		return r
	}, service.DateRange{})
}

// Plan decides whether parent needs an update to match rng. The returned
// update carries every present bound of rng; absent bounds stay nil.
func Plan(parent service.Task, rng service.DateRange) (service.DateUpdate, bool) {
	if rng.IsEmpty() {
		return service.DateUpdate{}, false
	}
	startChanged := rng.Start != nil && !service.SameDate(rng.Start, parent.StartOn)
	dueChanged := rng.Due != nil && !service.SameDate(rng.Due, parent.DueOn)
	if !startChanged && !dueChanged {
		return service.DateUpdate{}, false
	}
	return service.DateUpdate{StartOn: rng.Start, DueOn: rng.Due}, true
}

func clone(d *civil.Date) *civil.Date {
	c := *d
	return &c
}
