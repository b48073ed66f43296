package reminder

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// Notifier delivers a reminder to its user.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r Reminder) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, r Reminder) error {
	return f(ctx, r)
}

// Multi delivers to every notifier in order. All notifiers are tried;
// their errors are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, r Reminder) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes reminders to a logger. It is used when no chat
// connection is available, e.g. in dry runs.
type LogNotifier struct {
	Logger *log.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.Logger.Info(r.Message(), "user", r.UserID)
	return nil
}
