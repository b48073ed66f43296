package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind names a per-task button action.
type ActionKind string

const (
	ActionToggle ActionKind = "toggle"
	ActionDelete ActionKind = "delete"
)

// ErrBadAction is returned by ParseAction for malformed identifiers.
var ErrBadAction = errors.New("malformed action")

// Action is a toggle or delete bound to one user's task at a stored
// 0-based index.
type Action struct {
	Kind   ActionKind
	UserID string
	Index  int
}

// Encode returns the identifier form "<kind>:<user>:<index>".
func (a Action) Encode() string {
	return fmt.Sprintf("%s:%s:%d", a.Kind, a.UserID, a.Index)
}

// Label returns the button text, numbered by the task's 1-based position.
func (a Action) Label() string {
	switch a.Kind {
	case ActionToggle:
		return fmt.Sprintf("✅ Toggle %d", a.Index+1)
	case ActionDelete:
		return fmt.Sprintf("🗑️ Delete %d", a.Index+1)
	default:
		return string(a.Kind)
	}
}

// ParseAction decodes an identifier produced by Encode.
func ParseAction(s string) (Action, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Action{}, fmt.Errorf("%w: %q", ErrBadAction, s)
	}

	kind := ActionKind(parts[0])
	if kind != ActionToggle && kind != ActionDelete {
		return Action{}, fmt.Errorf("%w: unknown kind %q", ErrBadAction, parts[0])
	}
	if parts[1] == "" {
		return Action{}, fmt.Errorf("%w: missing user", ErrBadAction)
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return Action{}, fmt.Errorf("%w: bad index %q", ErrBadAction, parts[2])
	}
	return Action{Kind: kind, UserID: parts[1], Index: index}, nil
}
