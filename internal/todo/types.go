// Package todo stores, validates, and updates per-user checklists.
package todo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Priority names with a defined sort rank.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DueLayout is the canonical layout of stored due values.
const DueLayout = "2006-01-02 03:04 PM"

// dueParseLayout accepts one- or two-digit month, day, and hour.
const dueParseLayout = "2006-1-2 3:04 PM"

var (
	// ErrInvalidIndex is returned when a task position is out of range.
	ErrInvalidIndex = errors.New("invalid task index")
	// ErrInvalidDue is returned when a due date/time pair is partial or malformed.
	ErrInvalidDue = errors.New("invalid due date format")
	// ErrEmptyTask is returned when a task description is blank.
	ErrEmptyTask = errors.New("task description is empty")
)

// farFuture stands in for a missing due time when sorting.
var farFuture = time.Date(9999, time.December, 31, 23, 59, 0, 0, time.Local)

// Task represents a single checklist entry.
type Task struct {
	Task     string `json:"task"`
	Done     bool   `json:"done"`
	Priority string `json:"priority"`
	Due      string `json:"due,omitempty"`
}

// HasDue reports whether the task carries a due value.
func (t Task) HasDue() bool {
	return t.Due != ""
}

// DueAt parses the task's due value in local time.
func (t Task) DueAt() (time.Time, error) {
	if t.Due == "" {
		return time.Time{}, fmt.Errorf("task %q has no due date", t.Task)
	}
	return ParseDue(t.Due)
}

// Edit holds the replaceable fields of a task.
// An empty Due removes the task's due value.
type Edit struct {
	Task     string
	Priority string
	Due      string
}

// Entry pairs a task with its stored 0-based position.
type Entry struct {
	Index int
	Task  Task
}

// Position returns the 1-based position shown to users.
func (e Entry) Position() int {
	return e.Index + 1
}

// PriorityRank maps a priority to its sort rank. Unknown values rank last.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// NormalizePriority trims the value and canonicalises the case of the
// known priority names. Other values are returned trimmed.
func NormalizePriority(priority string) string {
	p := strings.TrimSpace(priority)
	for _, known := range []string{PriorityHigh, PriorityMedium, PriorityLow} {
		if strings.EqualFold(p, known) {
			return known
		}
	}
	return p
}

// ParseDue parses a due value in the host's local time zone.
func ParseDue(s string) (time.Time, error) {
	value := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	t, err := time.ParseInLocation(dueParseLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, s)
	}
	return t, nil
}

// JoinDue combines a due date and time into a canonical due value.
// Both parts empty means no due date. A single part, or a pair that does
// not parse, is ErrInvalidDue.
func JoinDue(date, clock string) (string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" && clock == "" {
		return "", nil
	}
	if date == "" || clock == "" {
		return "", ErrInvalidDue
	}
	t, err := ParseDue(date + " " + clock)
	if err != nil {
		return "", err
	}
	return t.Format(DueLayout), nil
}

// Sorted returns the tasks ordered by priority rank, then due time, with
// missing or unparseable due values last. The sort is stable and each
// entry keeps its stored index.
//
// Due values are compared as parsed times rather than as strings, so
// "2025-03-14 11:00 AM" sorts before "2025-03-14 01:00 PM" where a lexical
// comparison would put it after.
func Sorted(tasks []Task) []Entry {
	type keyed struct {
		entry Entry
		rank  int
		due   time.Time
	}
	keys := make([]keyed, len(tasks))
	for i, task := range tasks {
		due := farFuture
		if task.HasDue() {
			if t, err := ParseDue(task.Due); err == nil {
				due = t
			}
		}
		keys[i] = keyed{
			entry: Entry{Index: i, Task: task},
			rank:  PriorityRank(task.Priority),
			due:   due,
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].rank != keys[j].rank {
			return keys[i].rank < keys[j].rank
		}
		return keys[i].due.Before(keys[j].due)
	})

	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = k.entry
	}
	return entries
}

func validateTask(task Task) error {
	if strings.TrimSpace(task.Task) == "" {
		return ErrEmptyTask
	}
	if task.Due != "" {
		if _, err := ParseDue(task.Due); err != nil {
			return err
		}
	}
	return nil
}
