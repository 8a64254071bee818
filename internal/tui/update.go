package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prusti/pcg/internal/highlight"
	"github.com/prusti/pcg/internal/nav"
	"github.com/prusti/pcg/internal/session"
	"github.com/prusti/pcg/internal/viewstate"
)

const fetchTimeout = 10 * time.Second

// MsgFunctionsReady carries the loaded function index.
type MsgFunctionsReady []FunctionEntry

// MsgSelected carries the snapshot after a function selection landed.
type MsgSelected session.View

// MsgGraphText carries one fetched dot graph.
type MsgGraphText struct {
	File string
	Text string
}

// MsgGraphMeta carries the CFG edges emphasized by the current graph's
// branch-choice metadata.
type MsgGraphMeta struct {
	File string
	Keys []highlight.Key
}

// MsgError indicates an error occurred.
type MsgError error

// LoadFunctionsCmd fetches the function index in the background.
func LoadFunctionsCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		fns, err := s.Functions(ctx)
		if err != nil {
			return MsgError(err)
		}
		return MsgFunctionsReady(SortFunctions(fns))
	}
}

// SelectFunctionCmd switches the session to a function. A selection that
// was superseded while in flight produces no message.
func SelectFunctionCmd(s *session.Session, fn string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		err := s.Select(ctx, fn)
		if errors.Is(err, session.ErrStale) {
			return nil
		}
		if err != nil {
			return MsgError(err)
		}
		return MsgSelected(s.Snapshot())
	}
}

// loadMetaCmd aggregates every element's branch-choice keys for the graph.
func loadMetaCmd(s *session.Session, file string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		meta, err := s.GraphMeta(ctx, file)
		if err != nil {
			return MsgError(err)
		}
		var keys []highlight.Key
		for _, elem := range meta {
			keys = append(keys, highlight.KeysFor(elem)...)
		}
		return MsgGraphMeta{File: file, Keys: keys}
	}
}

func loadGraphCmd(s *session.Session, file string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		text, err := s.GraphText(ctx, file)
		if err != nil {
			return MsgError(err)
		}
		return MsgGraphText{File: file, Text: text}
	}
}

// refresh pulls a fresh snapshot and fetches the dot graph for the cursor
// when it changed.
func (m *AppModel) refresh() tea.Cmd {
	m.Snapshot = m.Session.Snapshot()
	if m.Snapshot.GraphFile == "" {
		m.GraphFile = ""
		m.GraphText = ""
		return nil
	}
	if m.Snapshot.GraphFile == m.GraphFile {
		return nil
	}
	m.GraphFile = m.Snapshot.GraphFile
	m.Highlighted = nil
	return loadGraphCmd(m.Session, m.GraphFile)
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case MsgFunctionsReady:
		m.Functions = msg
		m.Loading = false
		m.applyFilter()
		if len(m.Filtered) == 0 {
			return m, nil
		}
		// Restore the last selected function when it is still present.
		if stored, ok := m.State.Get(viewstate.KeySelectedFunction); ok {
			for i, idx := range m.Filtered {
				if m.Functions[idx].Slug == stored {
					m.FnSelected = i
					break
				}
			}
		}
		entry, _ := m.selectedEntry()
		return m, SelectFunctionCmd(m.Session, entry.Slug)

	case MsgSelected:
		m.Snapshot = session.View(msg)
		m.Err = nil
		cmd := m.refresh()
		return m, cmd

	case MsgGraphText:
		if msg.File == m.GraphFile {
			m.GraphText = msg.Text
		}
		return m, nil

	case MsgGraphMeta:
		if msg.File == m.GraphFile {
			m.Highlighted = msg.Keys
		}
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.InputMode {
		switch msg.Type {
		case tea.KeyEnter:
			m.InputMode = false
			m.InputBuffer.Blur()
			m.applyFilter()
			return m, nil
		case tea.KeyEsc:
			m.InputMode = false
			m.InputBuffer.Blur()
			m.InputBuffer.SetValue("")
			m.applyFilter()
			return m, nil
		}
		var cmd tea.Cmd
		m.InputBuffer, cmd = m.InputBuffer.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "/":
		m.InputMode = true
		m.Focus = FocusFunctions
		m.InputBuffer.SetValue("")
		m.InputBuffer.Focus()
		return m, textinput.Blink

	case "esc":
		if m.SearchActive {
			m.InputBuffer.SetValue("")
			m.applyFilter()
		}
		return m, nil

	case "tab":
		if m.Focus == FocusFunctions {
			m.Focus = FocusItems
		} else {
			m.Focus = FocusFunctions
		}
		return m, nil

	case "up", "k":
		if m.Focus == FocusFunctions {
			if m.FnSelected > 0 {
				m.FnSelected--
			}
			return m, nil
		}
		m.Session.Step(nav.Backward)
		return m, m.refresh()

	case "down", "j":
		if m.Focus == FocusFunctions {
			if m.FnSelected < len(m.Filtered)-1 {
				m.FnSelected++
			}
			return m, nil
		}
		m.Session.Step(nav.Forward)
		return m, m.refresh()

	case "enter":
		if m.Focus == FocusFunctions {
			if entry, ok := m.selectedEntry(); ok {
				return m, SelectFunctionCmd(m.Session, entry.Slug)
			}
		}
		return m, nil

	case "left", "p":
		m.Session.Step(nav.Backward)
		return m, m.refresh()

	case "right", "n":
		m.Session.Step(nav.Forward)
		return m, m.refresh()

	case "u":
		m.ShowUnwind = !m.ShowUnwind
		m.Session.SetShowUnwind(m.ShowUnwind)
		return m, m.refresh()

	case "a":
		m.InlineActions = !m.InlineActions
		viewstate.SetBool(m.State, viewstate.KeyInlineActions, m.InlineActions)
		return m, nil

	case "<":
		if m.FnPanelPct > minFnPanelPct {
			m.FnPanelPct -= fnPanelStep
			viewstate.SetInt(m.State, viewstate.KeyPanelWidths, m.FnPanelPct)
		}
		return m, nil

	case ">":
		if m.FnPanelPct < maxFnPanelPct {
			m.FnPanelPct += fnPanelStep
			viewstate.SetInt(m.State, viewstate.KeyPanelWidths, m.FnPanelPct)
		}
		return m, nil

	case "m":
		m.FnMinimized = !m.FnMinimized
		viewstate.SetBool(m.State, viewstate.KeyMinimizedPanels, m.FnMinimized)
		return m, nil

	case "h":
		if len(m.Highlighted) > 0 {
			m.Highlighted = nil
			return m, nil
		}
		if m.GraphFile != "" {
			return m, loadMetaCmd(m.Session, m.GraphFile)
		}
		return m, nil

	case "0":
		m.Session.SetPoint(nav.StatementPoint{Block: 0})
		return m, m.refresh()
	}

	return m, nil
}
