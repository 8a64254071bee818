package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prusti/pcg/internal/model"
	"github.com/prusti/pcg/internal/nav"
	"github.com/prusti/pcg/internal/source"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))

	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("176"))
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	literalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	borderColor = lipgloss.Color("63")
	activeColor = lipgloss.Color("205")
)

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Loading analysis output...\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}

	width := m.WindowSize.Width
	height := m.WindowSize.Height
	netWidth := width - 8
	if netWidth < 40 {
		netWidth = 40
	}
	boxHeight := height - 6
	if boxHeight < 8 {
		boxHeight = 8
	}
	interior := boxHeight - 2

	fnWidth := netWidth * m.FnPanelPct / 100
	if m.FnMinimized {
		fnWidth = 8
	}
	cfgWidth := (netWidth - fnWidth) / 3
	rightWidth := netWidth - fnWidth - cfgWidth

	left := m.renderFunctions(fnWidth, interior)
	cfg := m.renderCFG(cfgWidth, interior)
	right := m.renderPoint(rightWidth, interior)

	footer := dimStyle.Render("Help: tab: switch panel | up/down: move | n/p: step | /: search | h: branch highlight | u: unwind | a: inline actions | </>: width | m: minimize | q: quit")
	if m.InputMode {
		footer = "Search: " + m.InputBuffer.View()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, cfg, right)
	return main + "\n" + footer
}

func (m AppModel) renderFunctions(width, interior int) string {
	var b strings.Builder
	if m.FnMinimized {
		b.WriteString(titleStyle.Render("Fn"))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d", len(m.Filtered))))
		return panel(b.String(), width, interior, m.Focus == FocusFunctions)
	}
	b.WriteString(titleStyle.Render("Functions"))
	b.WriteString("\n\n")

	visible := interior - 2
	if visible < 1 {
		visible = 1
	}
	start, end := window(len(m.Filtered), m.FnSelected, visible)
	for i := start; i < end; i++ {
		line := truncate(m.Functions[m.Filtered[i]].Meta.Name, width-4)
		style := normalStyle
		if i == m.FnSelected {
			style = selectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	if m.SearchActive && len(m.Filtered) == 0 {
		b.WriteString(dimStyle.Render("(no matches)"))
	}

	return panel(b.String(), width, interior, m.Focus == FocusFunctions)
}

func (m AppModel) renderCFG(width, interior int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CFG"))
	b.WriteString("\n\n")

	if m.Snapshot.Filtered == nil {
		b.WriteString(dimStyle.Render("(no function selected)"))
		return panel(b.String(), width, interior, false)
	}

	emphasized := make(map[int]bool, len(m.Highlighted))
	for _, k := range m.Highlighted {
		emphasized[k.From] = true
		emphasized[k.To] = true
	}

	var lines []string
	cursor := 0
	for _, node := range m.Snapshot.Filtered.Nodes {
		header := model.BlockID(node.Block)
		if emphasized[node.Block] {
			header += " *"
		}
		if onBlock(m.Snapshot.Point, node.Block) {
			header = markerStyle.Render(header)
			cursor = len(lines)
		} else if emphasized[node.Block] {
			header = markerStyle.Render(header)
		}
		lines = append(lines, header)
		for i := 0; i <= len(node.Stmts); i++ {
			stmt, _ := node.StatementAt(i)
			line := "  " + truncate(stmt.Stmt, width-6)
			if onStatement(m.Snapshot.Point, node.Block, i) {
				line = selectedStyle.Render(line)
				cursor = len(lines)
			} else {
				line = dimStyle.Render(line)
			}
			lines = append(lines, line)
		}
	}

	visible := interior - 2
	if visible < 1 {
		visible = 1
	}
	start, end := window(len(lines), cursor, visible)
	for i := start; i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}

	return panel(b.String(), width, interior, false)
}

func (m AppModel) renderPoint(width, interior int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Point"))
	b.WriteString("\n\n")

	if m.Snapshot.Point != nil {
		b.WriteString(markerStyle.Render(m.Snapshot.Point.String()))
		b.WriteString("\n\n")
	}

	itemRows := interior / 2
	cursor := nav.IndexOf(m.Snapshot.Items, m.Snapshot.Position)
	start, end := window(len(m.Snapshot.Items), max(cursor, 0), max(itemRows-4, 1))
	for i := start; i < end; i++ {
		item := m.Snapshot.Items[i]
		style := actionStyle
		if _, isMarker := item.Position.(nav.IterationPosition); isMarker {
			style = normalStyle
		} else if !m.InlineActions {
			continue
		}
		line := truncate(item.Label, width-6)
		if i == cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(style.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.GraphText != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(truncate(m.GraphFile, width-4)))
		b.WriteString("\n")
		graphRows := interior - itemRows - 2
		for i, line := range strings.Split(m.GraphText, "\n") {
			if i >= graphRows {
				break
			}
			b.WriteString(dimStyle.Render(truncate(line, width-4)))
			b.WriteString("\n")
		}
	} else if entry, ok := m.selectedEntry(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderSource(entry.Meta, width, interior-itemRows-2))
	}

	return panel(b.String(), width, interior, m.Focus == FocusItems)
}

// renderSource shows the function source with token styling.
func (m AppModel) renderSource(meta model.FunctionMetadata, width, rows int) string {
	if meta.Source == "" || rows < 1 {
		return ""
	}
	lines := strings.Split(meta.Source, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	// Tokenize per line so truncation never splits an escape sequence.
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(styleSource(truncate(line, width-4)))
		b.WriteString("\n")
	}
	return b.String()
}

func styleSource(src string) string {
	var b strings.Builder
	for _, tok := range source.Tokenize(src) {
		text := src[tok.Start:tok.End]
		switch tok.Class {
		case source.ClassKeyword:
			b.WriteString(keywordStyle.Render(text))
		case source.ClassType:
			b.WriteString(typeStyle.Render(text))
		case source.ClassLiteral:
			b.WriteString(literalStyle.Render(text))
		case source.ClassComment:
			b.WriteString(commentStyle.Render(text))
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

func onBlock(p nav.Point, block int) bool {
	switch p := p.(type) {
	case nav.StatementPoint:
		return p.Block == block
	case nav.EdgePoint:
		return p.From == block
	}
	return false
}

func onStatement(p nav.Point, block, idx int) bool {
	sp, ok := p.(nav.StatementPoint)
	return ok && sp.Block == block && sp.StmtIndex == idx
}

// window centers the cursor within a list viewport of the given size.
func window(total, cursor, visible int) (int, int) {
	if total <= visible {
		return 0, total
	}
	start := 0
	if cursor >= visible/2 {
		start = cursor - visible/2
	}
	if start+visible > total {
		start = total - visible
	}
	return start, start + visible
}

func panel(content string, width, interior int, focused bool) string {
	color := borderColor
	if focused {
		color = activeColor
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(interior).
		Border(lipgloss.NormalBorder()).
		BorderForeground(color).
		Render(strings.TrimSuffix(content, "\n"))
}

func truncate(s string, width int) string {
	if width < 4 {
		width = 4
	}
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
