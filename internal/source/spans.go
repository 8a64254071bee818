// Package source maps positions in the analyzed function's source text to
// statements and prepares the text for display.
package source

import (
	"github.com/prusti/pcg/internal/model"
	"github.com/prusti/pcg/internal/nav"
)

// StmtRef locates one statement (or terminator) and its source span.
type StmtRef struct {
	Point nav.StatementPoint
	Span  model.Span
	Text  string
}

// Locator answers "which statements cover this source position" in
// declaration order: ascending block, then ascending statement index, the
// terminator last within its block.
type Locator struct {
	refs []StmtRef
}

// NewLocator indexes every statement of the graph.
func NewLocator(g *model.MirGraph) *Locator {
	l := &Locator{}
	for _, block := range g.Blocks() {
		node, ok := g.NodeByBlock(block)
		if !ok {
			continue
		}
		for i := 0; i <= len(node.Stmts); i++ {
			stmt, _ := node.StatementAt(i)
			l.refs = append(l.refs, StmtRef{
				Point: nav.StatementPoint{Block: block, StmtIndex: i},
				Span:  stmt.Span,
				Text:  stmt.Stmt,
			})
		}
	}
	return l
}

// At returns all statements whose span covers the position, in declaration
// order.
func (l *Locator) At(pos model.SourcePos) []StmtRef {
	var out []StmtRef
	for _, ref := range l.refs {
		if covers(ref.Span, pos) {
			out = append(out, ref)
		}
	}
	return out
}

func covers(span model.Span, pos model.SourcePos) bool {
	if before(pos, span.Low) {
		return false
	}
	return !before(span.High, pos)
}

func before(a, b model.SourcePos) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// Cycler makes the click-cycle over overlapping spans an explicit
// contract: the first click at a position selects the first match in
// declaration order, each repeated click at the identical position
// advances through the match set modulo its length, and any other position
// resets the cursor.
type Cycler struct {
	loc  *Locator
	last model.SourcePos
	idx  int
	live bool
}

// NewCycler builds a cycler over the locator.
func NewCycler(loc *Locator) *Cycler {
	return &Cycler{loc: loc}
}

// Click resolves a click at the position. ok is false when no statement
// covers it.
func (c *Cycler) Click(pos model.SourcePos) (StmtRef, bool) {
	matches := c.loc.At(pos)
	if len(matches) == 0 {
		c.live = false
		return StmtRef{}, false
	}

	if c.live && pos == c.last {
		c.idx = (c.idx + 1) % len(matches)
	} else {
		c.idx = 0
	}
	c.last = pos
	c.live = true
	return matches[c.idx], true
}
