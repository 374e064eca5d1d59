// Package tui is an interactive browser that steps through ranked files.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brettbedarf/treenav/navigator"
	"github.com/brettbedarf/treenav/watch"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Navigator is the part of a navigation session the browser drives.
type Navigator interface {
	Root() string
	Goto(n int) (navigator.Position, error)
	Next() (navigator.Position, error)
	Previous() (navigator.Position, error)
	Current() (navigator.Position, error)
	Count() (int, error)
	Last() (navigator.Position, error)
}

type refreshMsg struct{}

type changeMsg struct {
	change watch.Change
}

// Model implements tea.Model. Navigation runs synchronously inside Update,
// which bubbletea only calls from its event loop, so the session is never
// shared between goroutines.
type Model struct {
	nav     Navigator
	changes <-chan watch.Change // nil when not watching

	keys KeyMap
	help help.Model

	pos     navigator.Position
	count   int
	err     error
	notice  string
	gotoBuf string
}

// New returns a browser over nav. When changes is non-nil the browser
// re-resolves its rank every time the tree changes.
func New(nav Navigator, changes <-chan watch.Change) *Model {
	return &Model{
		nav:     nav,
		changes: changes,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return refreshMsg{} },
		m.waitForChange(),
	)
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return changeMsg{change: c}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case refreshMsg:
		m.refresh()
	case changeMsg:
		m.refresh()
		m.notice = fmt.Sprintf("tree changed (%s), ranks refreshed", msg.change.Path)
		return m, m.waitForChange()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		m.gotoBuf += s
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.apply(m.nav.Next())
	case key.Matches(msg, m.keys.Prev):
		m.apply(m.nav.Previous())
	case key.Matches(msg, m.keys.First):
		m.apply(m.nav.Goto(0))
	case key.Matches(msg, m.keys.Last):
		m.apply(m.nav.Last())
	case key.Matches(msg, m.keys.Goto):
		if m.gotoBuf != "" {
			n, err := strconv.Atoi(m.gotoBuf)
			m.gotoBuf = ""
			if err != nil {
				m.err = err
				return m, nil
			}
			m.apply(m.nav.Goto(n))
		}
	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.gotoBuf = ""
	return m, nil
}

func (m *Model) apply(pos navigator.Position, err error) {
	m.pos, m.err = pos, err
	m.notice = ""
}

// refresh recounts and re-resolves the current rank.
func (m *Model) refresh() {
	count, err := m.nav.Count()
	if err != nil {
		m.err = err
		return
	}
	m.count = count
	cur, err := m.nav.Current()
	if err != nil {
		m.err = err
		return
	}
	m.apply(m.nav.Goto(cur.Rank))
}

// Position returns the position last shown.
func (m *Model) Position() navigator.Position {
	return m.pos
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("treenav"))
	b.WriteString(" ")
	b.WriteString(DirStyle.Render(m.nav.Root()))
	b.WriteString("\n\n")

	b.WriteString(StatusStyle.Render(fmt.Sprintf("rank %d of %d", m.pos.Rank, m.count)))
	b.WriteString("\n")
	if m.pos.Resolved {
		dir := m.pos.Dir
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		b.WriteString(DirStyle.Render(dir))
		b.WriteString(FileStyle.Render(m.pos.Entry.Name))
	} else {
		b.WriteString(ErrorStyle.Render("File not found"))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(NoticeStyle.Render(m.notice))
	}
	if m.gotoBuf != "" {
		b.WriteString("\n")
		b.WriteString(StatusStyle.Render("goto " + m.gotoBuf))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return App.Render(b.String())
}
