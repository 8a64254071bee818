// Package nav defines the program-point address space and the linear
// stepping protocol over fixpoint phases and actions.
package nav

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prusti/pcg/internal/model"
)

// Point addresses one navigable program point. It is a closed sum: the only
// implementations are StatementPoint and EdgePoint, and consumers switch
// exhaustively over those two.
type Point interface {
	isPoint()
	// String renders the persisted form; Parse inverts it.
	String() string
}

// StatementPoint addresses a statement within a block. StmtIndex equal to
// the block's statement count addresses the terminator; no larger value is
// valid.
type StatementPoint struct {
	Block     int
	StmtIndex int
}

func (StatementPoint) isPoint() {}

func (p StatementPoint) String() string {
	return fmt.Sprintf("%s[%d]", model.BlockID(p.Block), p.StmtIndex)
}

// EdgePoint addresses a control-flow successor edge.
type EdgePoint struct {
	From int
	To   int
}

func (EdgePoint) isPoint() {}

func (p EdgePoint) String() string {
	return fmt.Sprintf("%s -> %s", model.BlockID(p.From), model.BlockID(p.To))
}

// ParsePoint inverts Point.String. It accepts "bb<N>[<i>]" for statement
// points and "bb<N> -> bb<M>" for edge points.
func ParsePoint(s string) (Point, error) {
	s = strings.TrimSpace(s)
	if from, to, ok := strings.Cut(s, "->"); ok {
		fromBlock, err := model.ParseBlockID(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("parse point %q: %w", s, err)
		}
		toBlock, err := model.ParseBlockID(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("parse point %q: %w", s, err)
		}
		return EdgePoint{From: fromBlock, To: toBlock}, nil
	}

	open := strings.IndexByte(s, '[')
	if open == -1 || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("parse point %q: unrecognized form", s)
	}
	block, err := model.ParseBlockID(s[:open])
	if err != nil {
		return nil, fmt.Errorf("parse point %q: %w", s, err)
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("parse point %q: bad statement index", s)
	}
	return StatementPoint{Block: block, StmtIndex: idx}, nil
}

// FormatPath renders a block sequence in its persisted form, for example
// "bb0 -> bb2 -> bb5".
func FormatPath(blocks []int) string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = model.BlockID(b)
	}
	return strings.Join(ids, " -> ")
}

// ParsePath inverts FormatPath. An empty string yields an empty path.
func ParsePath(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "->")
	blocks := make([]int, 0, len(parts))
	for _, part := range parts {
		b, err := model.ParseBlockID(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse path %q: %w", s, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Position addresses one navigable element within a statement point's
// phase/action lattice. It is a closed sum of IterationPosition and
// ActionPosition.
type Position interface {
	isPosition()
	String() string
}

// IterationPosition selects a fixpoint phase marker by name.
type IterationPosition struct {
	Phase string
}

func (IterationPosition) isPosition() {}

func (p IterationPosition) String() string { return p.Phase }

// ActionPosition selects one action inside a phase's action list. On edge
// points the only valid phase is EdgePhase.
type ActionPosition struct {
	Phase string
	Index int
}

func (ActionPosition) isPosition() {}

func (p ActionPosition) String() string {
	return fmt.Sprintf("%s/action[%d]", p.Phase, p.Index)
}

// EdgePhase is the pseudo-phase owning the flat action list of an edge
// point. Edges have no iteration phases.
const EdgePhase = "successor"

// InitialPhase names the sentinel position a point is entered at after a
// boundary crossing, before any explicit selection.
const InitialPhase = "initial"

// InitialPosition is the sentinel entry position for a freshly selected
// point.
func InitialPosition() Position {
	return IterationPosition{Phase: InitialPhase}
}

// SamePosition reports whether two positions address the same element.
func SamePosition(a, b Position) bool {
	switch a := a.(type) {
	case IterationPosition:
		b, ok := b.(IterationPosition)
		return ok && a == b
	case ActionPosition:
		b, ok := b.(ActionPosition)
		return ok && a == b
	}
	return false
}

// SamePoint reports whether two points address the same program point.
func SamePoint(a, b Point) bool {
	switch a := a.(type) {
	case StatementPoint:
		b, ok := b.(StatementPoint)
		return ok && a == b
	case EdgePoint:
		b, ok := b.(EdgePoint)
		return ok && a == b
	}
	return false
}
