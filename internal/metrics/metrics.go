// Package metrics records reminder and command counters.
package metrics

import "time"

// Recorder receives scanner and command events.
type Recorder interface {
	ScanCompleted(d time.Duration)
	RemindersDue(n int)
	ReminderSent()
	ReminderFailed()
	CommandHandled(name string, ok bool)
}

// Nop discards every event.
type Nop struct{}

func (Nop) ScanCompleted(time.Duration) {}
func (Nop) RemindersDue(int)            {}
func (Nop) ReminderSent()               {}
func (Nop) ReminderFailed()             {}
func (Nop) CommandHandled(string, bool) {}
