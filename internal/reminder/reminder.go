// Package reminder finds tasks that fall due soon and delivers one
// reminder per task through a Notifier.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/nibzard/checklist-go/internal/todo"
)

// Reminder is one pending notification for a user's task.
type Reminder struct {
	UserID string `json:"user_id"`
	// Index is the task's stored 0-based position at scan time.
	Index    int       `json:"index"`
	Task     string    `json:"task"`
	Priority string    `json:"priority"`
	Due      string    `json:"due"`
	DueAt    time.Time `json:"due_at"`

	// occurrence numbers tasks of one user that share text and due time,
	// so each of them is reminded separately.
	occurrence int
}

// Message renders the text sent to the user.
func (r Reminder) Message() string {
	return fmt.Sprintf("🔔 Reminder: '%s' is due at %s (Priority: %s)", r.Task, r.Due, r.Priority)
}

// key identifies a reminder for de-duplication. Editing the task text or
// its due time yields a new key. Deleting or adding other tasks does not.
func (r Reminder) key() string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d", r.UserID, r.Task, r.DueAt.Format(time.RFC3339), r.occurrence)
}

// Due returns a reminder for every task in snapshot that is not done and
// whose due time lies in [now, now+lookahead]. Tasks without a due value or
// with one that does not parse are skipped. Results are ordered by user and
// then by due time.
func Due(snapshot map[string][]todo.Task, now time.Time, lookahead time.Duration) []Reminder {
	end := now.Add(lookahead)

	var out []Reminder
	for userID, tasks := range snapshot {
		seen := make(map[string]int)
		for i, task := range tasks {
			if task.Done || !task.HasDue() {
				continue
			}
			at, err := task.DueAt()
			if err != nil {
				continue
			}
			if at.Before(now) || at.After(end) {
				continue
			}
			same := task.Task + "\x00" + task.Due
			out = append(out, Reminder{
				UserID:     userID,
				Index:      i,
				Task:       task.Task,
				Priority:   task.Priority,
				Due:        task.Due,
				DueAt:      at,
				occurrence: seen[same],
			})
			seen[same]++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].Index < out[j].Index
	})
	return out
}
