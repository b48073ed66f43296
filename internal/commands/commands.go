// Package commands implements the chat-facing checklist operations. It is
// independent of any chat platform: adapters translate their events into
// calls on Service and render the returned Response.
package commands

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/checklist-go/internal/metrics"
	"github.com/nibzard/checklist-go/internal/todo"
)

// MaxActionTasks is the number of tasks in a view that get buttons.
const MaxActionTasks = 10

// User-visible messages.
const (
	MsgEmpty        = "You don't have any tasks. Use `/add` to start."
	MsgSaveFailed   = "⚠️ Could not save your checklist, please try again."
	MsgInvalidDue   = "❌ Invalid due date format. Use YYYY-MM-DD HH:MM AM/PM."
	MsgInvalidIndex = "❌ Invalid task index."
	MsgEmptyTask    = "❌ Task description cannot be empty."
	MsgStaleAction  = "❌ That task no longer exists. Run /checklist again."
	MsgNotOwner     = "❌ These buttons belong to someone else's checklist."
)

// TaskStore is the subset of the task store the commands use.
type TaskStore interface {
	Tasks(userID string) []todo.Task
	Add(userID string, task todo.Task) (todo.Entry, error)
	Edit(userID string, position int, edit todo.Edit) (todo.Task, error)
	Toggle(userID string, index int) (todo.Task, error)
	Delete(userID string, index int) (todo.Task, error)
	Repair(userID string) (int, error)
}

// Response is what a command shows the caller.
type Response struct {
	Text      string
	Ephemeral bool
	Actions   []Action
}

// AddRequest holds the inputs of the add command.
type AddRequest struct {
	Task     string
	Priority string
	DueDate  string
	DueTime  string
}

// EditRequest holds the inputs of the edit command. Position is 1-based.
type EditRequest struct {
	Position int
	Task     string
	Priority string
	DueDate  string
	DueTime  string
}

// Service executes commands against a TaskStore.
type Service struct {
	store   TaskStore
	logger  *log.Logger
	metrics metrics.Recorder
	coin    func() int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCoin replaces the coin used by the flip trigger. It must return 0
// for heads and 1 for tails.
func WithCoin(coin func() int) Option {
	return func(s *Service) { s.coin = coin }
}

// New returns a Service over store.
func New(store TaskStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  log.Default(),
		metrics: metrics.Nop{},
		coin:    func() int { return rand.Intn(2) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View renders the caller's checklist ordered by priority and due time.
// Rows are numbered by stored position so the number matches what edit
// accepts.
func (s *Service) View(userID string) Response {
	tasks := s.store.Tasks(userID)
	s.metrics.CommandHandled("view", true)
	if len(tasks) == 0 {
		return Response{Text: MsgEmpty}
	}

	entries := todo.Sorted(tasks)
	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, "**Your Checklist:**")
	var actions []Action
	for i, e := range entries {
		lines = append(lines, FormatEntry(e))
		if i < MaxActionTasks {
			actions = append(actions,
				Action{Kind: ActionToggle, UserID: userID, Index: e.Index},
				Action{Kind: ActionDelete, UserID: userID, Index: e.Index},
			)
		}
	}
	if len(entries) > MaxActionTasks {
		lines = append(lines, fmt.Sprintf("_Buttons are shown for the first %d tasks._", MaxActionTasks))
	}
	return Response{Text: strings.Join(lines, "\n"), Actions: actions}
}

// FormatEntry renders one checklist row.
func FormatEntry(e todo.Entry) string {
	mark := "❌"
	if e.Task.Done {
		mark = "✅"
	}
	due := e.Task.Due
	if due == "" {
		due = "No due date"
	}
	return fmt.Sprintf("%d. %s %s | %s | %s", e.Position(), mark, e.Task.Task, e.Task.Priority, due)
}

// Add appends a task to the caller's checklist.
func (s *Service) Add(userID string, req AddRequest) Response {
	due, err := todo.JoinDue(req.DueDate, req.DueTime)
	if err != nil {
		return s.fail("add", userID, err)
	}
	task := todo.Task{
		Task:     strings.TrimSpace(req.Task),
		Priority: todo.NormalizePriority(req.Priority),
		Due:      due,
	}
	if _, err := s.store.Add(userID, task); err != nil {
		return s.fail("add", userID, err)
	}

	s.metrics.CommandHandled("add", true)
	return Response{Text: fmt.Sprintf("Added task: `%s` | Priority: %s%s", task.Task, task.Priority, dueSuffix(task.Due))}
}

// Edit replaces the task at the given 1-based position. Omitting the due
// date and time clears the due value.
func (s *Service) Edit(userID string, req EditRequest) Response {
	due, dueErr := todo.JoinDue(req.DueDate, req.DueTime)
	if dueErr != nil {
		// An out-of-range position is reported before a bad due value.
		if n := len(s.store.Tasks(userID)); req.Position < 1 || req.Position > n {
			return s.fail("edit", userID, todo.ErrInvalidIndex)
		}
		return s.fail("edit", userID, dueErr)
	}

	task, err := s.store.Edit(userID, req.Position, todo.Edit{
		Task:     req.Task,
		Priority: req.Priority,
		Due:      due,
	})
	if err != nil {
		return s.fail("edit", userID, err)
	}

	s.metrics.CommandHandled("edit", true)
	return Response{Text: fmt.Sprintf("✏️ Edited task %d: `%s` | Priority: %s%s", req.Position, task.Task, task.Priority, dueSuffix(task.Due))}
}

// Toggle flips the done flag of the task at the stored 0-based index.
func (s *Service) Toggle(userID string, index int) Response {
	task, err := s.store.Toggle(userID, index)
	if err != nil {
		return s.failAction("toggle", userID, err)
	}
	s.metrics.CommandHandled("toggle", true)
	return Response{Text: fmt.Sprintf("Toggled `%s`", task.Task), Ephemeral: true}
}

// Delete removes the task at the stored 0-based index.
func (s *Service) Delete(userID string, index int) Response {
	task, err := s.store.Delete(userID, index)
	if err != nil {
		return s.failAction("delete", userID, err)
	}
	s.metrics.CommandHandled("delete", true)
	return Response{Text: fmt.Sprintf("Deleted `%s`", task.Task), Ephemeral: true}
}

// Repair drops the caller's quarantined entries.
func (s *Service) Repair(userID string) Response {
	removed, err := s.store.Repair(userID)
	if err != nil {
		return s.fail("repair", userID, err)
	}
	s.metrics.CommandHandled("repair", true)
	return Response{Text: fmt.Sprintf("🧹 Repaired task list. Removed %d invalid entries.", removed)}
}

// Execute runs a button action on behalf of callerID. Only the user the
// action is bound to may run it.
func (s *Service) Execute(callerID string, a Action) Response {
	if callerID != a.UserID {
		s.metrics.CommandHandled(string(a.Kind), false)
		s.logger.Warn("action rejected", "caller", callerID, "owner", a.UserID, "action", a.Encode())
		return Response{Text: MsgNotOwner, Ephemeral: true}
	}
	switch a.Kind {
	case ActionToggle:
		return s.Toggle(a.UserID, a.Index)
	case ActionDelete:
		return s.Delete(a.UserID, a.Index)
	default:
		s.metrics.CommandHandled(string(a.Kind), false)
		return Response{Text: MsgStaleAction, Ephemeral: true}
	}
}

// Message handles a passive chat message. It reports false when the
// message triggers nothing.
func (s *Service) Message(content string) (Response, bool) {
	if !strings.Contains(strings.ToLower(content), "flip a coin") {
		return Response{}, false
	}
	s.metrics.CommandHandled("flip", true)
	if s.coin() == 0 {
		return Response{Text: "Heads"}, true
	}
	return Response{Text: "Tails"}, true
}

func (s *Service) fail(name, userID string, err error) Response {
	s.metrics.CommandHandled(name, false)
	switch {
	case errors.Is(err, todo.ErrInvalidDue):
		return Response{Text: MsgInvalidDue}
	case errors.Is(err, todo.ErrInvalidIndex):
		return Response{Text: MsgInvalidIndex}
	case errors.Is(err, todo.ErrEmptyTask):
		return Response{Text: MsgEmptyTask}
	default:
		s.logger.Error("command failed", "command", name, "user", userID, "err", err)
		return Response{Text: MsgSaveFailed}
	}
}

func (s *Service) failAction(name, userID string, err error) Response {
	if errors.Is(err, todo.ErrInvalidIndex) {
		s.metrics.CommandHandled(name, false)
		return Response{Text: MsgStaleAction, Ephemeral: true}
	}
	resp := s.fail(name, userID, err)
	resp.Ephemeral = true
	return resp
}

func dueSuffix(due string) string {
	if due == "" {
		return ""
	}
	return " | Due: " + due
}
