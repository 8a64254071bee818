package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prusti/pcg/internal/model"
)

type memStore map[string]string

func (m memStore) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m memStore) Set(key, value string) error   { m[key] = value; return nil }
func (m memStore) Delete(key string)             { delete(m, key) }

func TestSortFunctionsByDisplayName(t *testing.T) {
	fns := model.Functions{
		"crate_b_main": {Name: "b::main"},
		"crate_a_main": {Name: "a::main"},
		"crate_a_dup":  {Name: "a::main"},
	}
	entries := SortFunctions(fns)
	if entries[0].Slug != "crate_a_dup" || entries[1].Slug != "crate_a_main" || entries[2].Slug != "crate_b_main" {
		t.Fatalf("unexpected order: %v", entries)
	}
}

func TestApplyFilterNarrowsAndResetsCursor(t *testing.T) {
	m := AppModel{
		Functions: []FunctionEntry{
			{Slug: "a", Meta: model.FunctionMetadata{Name: "alpha::run"}},
			{Slug: "b", Meta: model.FunctionMetadata{Name: "beta::run"}},
			{Slug: "c", Meta: model.FunctionMetadata{Name: "alpha::helper"}},
		},
		FnSelected:  2,
		InputBuffer: textinput.New(),
	}
	m.applyFilter()
	if len(m.Filtered) != 3 {
		t.Fatalf("empty term must keep all entries, got %d", len(m.Filtered))
	}

	m.InputBuffer.SetValue("ALPHA")
	m.applyFilter()
	if len(m.Filtered) != 2 || m.Filtered[0] != 0 || m.Filtered[1] != 2 {
		t.Fatalf("expected case-insensitive match on alpha entries, got %v", m.Filtered)
	}

	m.InputBuffer.SetValue("beta")
	m.applyFilter()
	if m.FnSelected != 0 {
		t.Fatalf("cursor past the filtered list must reset, got %d", m.FnSelected)
	}
}

func TestPanelGeometryPersists(t *testing.T) {
	store := memStore{}
	m := InitialModel(nil, store)
	if m.FnPanelPct != defaultFnPanelPct || m.FnMinimized {
		t.Fatalf("unexpected initial geometry: %d%%, minimized=%v", m.FnPanelPct, m.FnMinimized)
	}

	press := func(m AppModel, key string) AppModel {
		t.Helper()
		next, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		return next.(AppModel)
	}

	m = press(m, ">")
	if m.FnPanelPct != defaultFnPanelPct+fnPanelStep {
		t.Fatalf("expected widened panel, got %d%%", m.FnPanelPct)
	}
	m = press(m, "m")
	if !m.FnMinimized {
		t.Fatalf("expected the functions panel minimized")
	}

	// A fresh model over the same store restores both settings.
	restored := InitialModel(nil, store)
	if restored.FnPanelPct != defaultFnPanelPct+fnPanelStep || !restored.FnMinimized {
		t.Fatalf("geometry not restored: %d%%, minimized=%v", restored.FnPanelPct, restored.FnMinimized)
	}

	// The width clamps at its bounds.
	for i := 0; i < 20; i++ {
		m = press(m, "<")
	}
	if m.FnPanelPct != minFnPanelPct {
		t.Fatalf("expected the width clamped at %d%%, got %d%%", minFnPanelPct, m.FnPanelPct)
	}
}

func TestWindowCentersCursor(t *testing.T) {
	if start, end := window(3, 1, 10); start != 0 || end != 3 {
		t.Fatalf("short lists are not windowed, got [%d,%d)", start, end)
	}
	start, end := window(100, 50, 10)
	if start != 45 || end != 55 {
		t.Fatalf("expected cursor centered, got [%d,%d)", start, end)
	}
	if start, end := window(100, 99, 10); start != 90 || end != 100 {
		t.Fatalf("window must clamp at the tail, got [%d,%d)", start, end)
	}
}
