// Package hooks runs an external command for every reminder.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/nibzard/checklist-go/internal/reminder"
)

// Options configures a hook invocation.
type Options struct {
	Command string
	WorkDir string
	// Stdout and Stderr receive the command's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook command for r. The command receives the user id,
// the due value, and the priority as arguments and the reminder as JSON on
// stdin. An empty command does nothing.
func Invoke(ctx context.Context, opts Options, r reminder.Reminder) (Result, error) {
	if opts.Command == "" {
		return Result{}, nil
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return Result{}, fmt.Errorf("encode reminder: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, opts.Command, r.UserID, r.Due, r.Priority)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Stdin = bytes.NewReader(append(payload, '\n'))
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	err = cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

// Notifier delivers reminders by running a hook command.
type Notifier struct {
	Options Options
}

// NewNotifier returns a Notifier running command.
func NewNotifier(command string) *Notifier {
	return &Notifier{Options: Options{Command: command}}
}

// Notify implements reminder.Notifier.
func (n *Notifier) Notify(ctx context.Context, r reminder.Reminder) error {
	_, err := Invoke(ctx, n.Options, r)
	return err
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
