// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/checklist-go/internal/commands"
	"github.com/nibzard/checklist-go/internal/logging"
	"github.com/nibzard/checklist-go/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiModel)

// WithRefreshInterval sets how often the checklist file is re-read.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(m *tuiModel) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// RunTUI opens an interactive view of one user's checklist stored at
// dataPath. An empty userID starts with the first user in the file.
func RunTUI(ctx context.Context, dataPath, userID string, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(dataPath, userID, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	dataPath     string
	userID       string
	users        []string
	store        *todo.Store
	entries      []todo.Entry
	quarantined  int
	cursor       int
	message      string
	loadErr      error
	showHelp     bool
	tickInterval time.Duration
}

type tickMsg time.Time

func newTUIModel(dataPath, userID string, opts ...TUIOption) *tuiModel {
	m := &tuiModel{
		dataPath:     dataPath,
		userID:       userID,
		tickInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case " ", "enter":
			m.act(commands.ActionToggle)
		case "d", "x":
			m.act(commands.ActionDelete)
		case "R":
			m.repair()
		case "tab":
			m.nextUser()
		case "r", "f5":
			m.refresh()
		case "h", "?":
			m.showHelp = !m.showHelp
		}
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.userID)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString("Error loading checklist file:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.userID == "" {
		b.WriteString("  No users in " + m.dataPath + "\n\n")
	} else if len(m.entries) == 0 {
		b.WriteString("  No tasks.\n\n")
	} else {
		for i, e := range m.entries {
			pointer := "  "
			if i == m.cursor {
				pointer = "> "
			}
			b.WriteString(pointer + commands.FormatEntry(e) + "\n")
		}
		b.WriteString("\n")
	}

	if m.quarantined > 0 {
		b.WriteString(fmt.Sprintf("  %d invalid entries hidden (R to remove)\n\n", m.quarantined))
	}
	if m.message != "" {
		b.WriteString(m.message + "\n\n")
	}
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh re-reads the checklist file so changes made by a running bot
// show up.
func (m *tuiModel) refresh() {
	store, err := todo.Load(m.dataPath)
	if err != nil {
		m.loadErr = err
		m.store = nil
		m.entries = nil
		return
	}
	m.loadErr = nil
	m.store = store
	m.users = store.Users()
	if m.userID == "" && len(m.users) > 0 {
		m.userID = m.users[0]
	}
	m.entries = todo.Sorted(store.Tasks(m.userID))
	m.quarantined = store.Quarantined(m.userID)
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
}

func (m *tuiModel) service() *commands.Service {
	return commands.New(m.store, commands.WithLogger(logging.Discard()))
}

func (m *tuiModel) act(kind commands.ActionKind) {
	if len(m.entries) == 0 {
		return
	}
	m.refresh()
	if m.store == nil || m.cursor >= len(m.entries) {
		return
	}
	action := commands.Action{Kind: kind, UserID: m.userID, Index: m.entries[m.cursor].Index}
	m.message = m.service().Execute(m.userID, action).Text
	m.refresh()
}

func (m *tuiModel) repair() {
	m.refresh()
	if m.store == nil || m.userID == "" {
		return
	}
	m.message = m.service().Repair(m.userID).Text
	m.refresh()
}

func (m *tuiModel) nextUser() {
	if len(m.users) == 0 {
		return
	}
	next := 0
	for i, id := range m.users {
		if id == m.userID {
			next = (i + 1) % len(m.users)
			break
		}
	}
	m.userID = m.users[next]
	m.cursor = 0
	m.message = ""
	m.refresh()
}

func writeTitle(b *strings.Builder, userID string) {
	title := "Checklist"
	if userID != "" {
		title += " for " + userID
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  up/k down/j  Move\n")
	b.WriteString("  space/enter  Toggle done\n")
	b.WriteString("  d, x         Delete task\n")
	b.WriteString("  R            Remove invalid entries\n")
	b.WriteString("  tab          Next user\n")
	b.WriteString("  r, F5        Refresh data\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	b.WriteString(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s\n", interval))
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
