package service

import (
	"cloud.google.com/go/civil"
)

// Task represents a single task item. Dates are nil when unset.
type Task struct {
	ID          string      `json:"gid"`
	Name        string      `json:"name"`
	StartOn     *civil.Date `json:"start_on"`
	DueOn       *civil.Date `json:"due_on"`
	NumSubtasks int         `json:"num_subtasks"`
}

// DateRange is the aggregate span of a set of subtasks.
// A bound is nil when no subtask supplies it.
type DateRange struct {
	Start *civil.Date
	Due   *civil.Date
}

// IsEmpty reports whether neither bound is present.
func (r DateRange) IsEmpty() bool {
	return r.Start == nil && r.Due == nil
}

// DateUpdate is the payload of a date write. Nil fields are omitted.
type DateUpdate struct {
	StartOn *civil.Date `json:"start_on,omitempty"`
	DueOn   *civil.Date `json:"due_on,omitempty"`
}

// IsEmpty reports whether the update would write nothing.
func (u DateUpdate) IsEmpty() bool {
	return u.StartOn == nil && u.DueOn == nil
}

// FormatDate renders an optional date, "none" when nil.
func FormatDate(d *civil.Date) string {
	if d == nil {
		return "none"
	}
	return d.String()
}

// SameDate reports whether two optional dates are equal, treating two nils as equal.
func SameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
