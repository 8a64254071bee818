// Package tui is the terminal front end: a function picker, the filtered
// CFG outline, the per-point item list and the rendered source.
package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prusti/pcg/internal/highlight"
	"github.com/prusti/pcg/internal/model"
	"github.com/prusti/pcg/internal/session"
	"github.com/prusti/pcg/internal/viewstate"
)

type focusArea int

const (
	FocusFunctions focusArea = iota
	FocusItems
)

// Function-panel width bounds, as a percentage of the usable width.
const (
	defaultFnPanelPct = 25
	minFnPanelPct     = 10
	maxFnPanelPct     = 45
	fnPanelStep       = 5
)

// FunctionEntry is one pickable function.
type FunctionEntry struct {
	Slug string
	Meta model.FunctionMetadata
}

// AppModel holds the TUI state.
type AppModel struct {
	Session *session.Session
	State   viewstate.Store

	Loading    bool
	Err        error
	WindowSize tea.WindowSizeMsg
	Focus      focusArea

	Functions  []FunctionEntry
	Filtered   []int // indices into Functions surviving the search
	FnSelected int   // index into Filtered

	// Search state for the function picker.
	InputMode    bool
	InputBuffer  textinput.Model
	SearchActive bool

	// View is the session snapshot the panels render from.
	Snapshot  session.View
	GraphFile string
	GraphText string
	// Highlighted holds the CFG edges emphasized from the current graph's
	// branch-choice metadata; empty means no emphasis.
	Highlighted []highlight.Key

	ShowUnwind    bool
	InlineActions bool

	// Panel geometry, persisted across sessions.
	FnPanelPct  int
	FnMinimized bool
}

// InitialModel returns the initial state.
func InitialModel(s *session.Session, state viewstate.Store) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Function name..."
	ti.CharLimit = 80
	ti.Width = 24

	return AppModel{
		Session:       s,
		State:         state,
		Loading:       true,
		InputBuffer:   ti,
		ShowUnwind:    viewstate.GetBool(state, viewstate.KeyShowUnwind, false),
		InlineActions: viewstate.GetBool(state, viewstate.KeyInlineActions, true),
		FnPanelPct:    viewstate.GetInt(state, viewstate.KeyPanelWidths, defaultFnPanelPct),
		FnMinimized:   viewstate.GetBool(state, viewstate.KeyMinimizedPanels, false),
	}
}

// SortFunctions orders the picker entries by display name, slug as the
// tiebreak.
func SortFunctions(fns model.Functions) []FunctionEntry {
	entries := make([]FunctionEntry, 0, len(fns))
	for slug, meta := range fns {
		entries = append(entries, FunctionEntry{Slug: slug, Meta: meta})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Meta.Name != entries[j].Meta.Name {
			return entries[i].Meta.Name < entries[j].Meta.Name
		}
		return entries[i].Slug < entries[j].Slug
	})
	return entries
}

// applyFilter narrows the picker to names containing the search term.
func (m *AppModel) applyFilter() {
	term := strings.ToLower(m.InputBuffer.Value())
	m.Filtered = m.Filtered[:0]
	for i, entry := range m.Functions {
		if term == "" || strings.Contains(strings.ToLower(entry.Meta.Name), term) {
			m.Filtered = append(m.Filtered, i)
		}
	}
	m.SearchActive = term != ""
	if m.FnSelected >= len(m.Filtered) {
		m.FnSelected = 0
	}
}

// selectedEntry returns the picker entry under the cursor.
func (m AppModel) selectedEntry() (FunctionEntry, bool) {
	if m.FnSelected < 0 || m.FnSelected >= len(m.Filtered) {
		return FunctionEntry{}, false
	}
	return m.Functions[m.Filtered[m.FnSelected]], true
}

func (m AppModel) Init() tea.Cmd {
	return LoadFunctionsCmd(m.Session)
}
