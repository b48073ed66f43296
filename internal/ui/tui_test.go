package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/checklist-go/internal/todo"
)

const seed = `{
  "42": [
    {"task": "water plants", "done": false, "priority": "Low"},
    {"task": "submit report", "done": false, "priority": "High"},
    {"broken": true}
  ],
  "7": [
    {"task": "call mom", "done": true, "priority": "Medium"}
  ]
}`

func newTestModel(t *testing.T, user string) (*tuiModel, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_checklists.json")
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}
	m := newTUIModel(path, user)
	m.Init()
	return m, path
}

func press(m *tuiModel, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestViewListsSortedTasks(t *testing.T) {
	m, _ := newTestModel(t, "42")

	view := m.View()
	first := strings.Index(view, "submit report")
	second := strings.Index(view, "water plants")
	if first < 0 || second < 0 || first > second {
		t.Errorf("tasks not in priority order:\n%s", view)
	}
	if !strings.Contains(view, "> 2. ❌ submit report | High") {
		t.Errorf("cursor row missing:\n%s", view)
	}
	if !strings.Contains(view, "1 invalid entries hidden") {
		t.Errorf("quarantine note missing:\n%s", view)
	}
}

func TestToggleAndDelete(t *testing.T) {
	m, path := newTestModel(t, "42")

	press(m, "down", "enter")
	if !strings.Contains(m.message, "Toggled `water plants`") {
		t.Errorf("message after toggle = %q", m.message)
	}

	store, err := todo.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !store.Tasks("42")[0].Done {
		t.Error("toggle was not persisted")
	}

	press(m, "d")
	store, _ = todo.Load(path)
	if got := store.Tasks("42"); len(got) != 1 || got[0].Task != "submit report" {
		t.Errorf("tasks after delete = %+v", got)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.cursor)
	}
}

func TestRepairKey(t *testing.T) {
	m, path := newTestModel(t, "42")

	press(m, "R")
	if !strings.Contains(m.message, "Removed 1 invalid entries") {
		t.Errorf("message = %q", m.message)
	}
	if strings.Contains(m.View(), "invalid entries hidden") {
		t.Error("quarantine note should be gone")
	}
	data, _ := os.ReadFile(path)
	if bytes.Contains(data, []byte("broken")) {
		t.Error("invalid entry still on disk")
	}
}

func TestUserSwitchAndDefault(t *testing.T) {
	m, _ := newTestModel(t, "")
	if m.userID != "42" {
		t.Errorf("default user = %q, want first sorted user 42", m.userID)
	}

	press(m, "tab")
	if m.userID != "7" {
		t.Errorf("user after tab = %q, want 7", m.userID)
	}
	if !strings.Contains(m.View(), "✅ call mom") {
		t.Errorf("view for user 7:\n%s", m.View())
	}
}

func TestHelpAndQuit(t *testing.T) {
	m, _ := newTestModel(t, "42")

	press(m, "h")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help screen not shown")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	m := newTUIModel(path, "42")
	m.Init()
	if !strings.Contains(m.View(), "Error loading checklist file") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer is not a TTY")
	}
}
