package nav

import (
	"github.com/prusti/pcg/internal/model"
)

// Item is one steppable unit in the flattened ordering for a point.
type Item struct {
	Position Position
	// Label is the phase name for markers and the rendered action line
	// for actions.
	Label string
	// GraphFile names the dot graph rendered at this item, when one was
	// produced.
	GraphFile string
}

// BuildStatementItems flattens a statement's iteration payload into the
// total order the user steps through: phases reported before pre_operands
// in encounter order, then each canonical evaluation phase preceded by its
// own actions. Actions are attributed to the phase whose post-state they
// produce, so they render immediately before their phase marker. The
// result is stable for identical input.
func BuildStatementItems(stmt *model.StmtData) []Item {
	items := make([]Item, 0, len(stmt.Graphs.AtPhase)+4)

	// Everything reported before the canonical group keeps its encounter
	// order.
	var trailing []model.PhaseGraph
	seenEval := false
	for _, pg := range stmt.Graphs.AtPhase {
		if model.IsEvalPhase(pg.Phase) {
			seenEval = true
			continue
		}
		if seenEval {
			trailing = append(trailing, pg)
			continue
		}
		items = append(items, Item{
			Position:  IterationPosition{Phase: pg.Phase},
			Label:     pg.Phase,
			GraphFile: pg.Filename,
		})
	}

	for _, phase := range model.EvalPhases() {
		actions := stmt.Actions.ForPhase(phase)
		files := stmt.Graphs.Actions.ForPhase(phase)
		for i, action := range actions {
			item := Item{
				Position: ActionPosition{Phase: phase, Index: i},
				Label:    actionLabel(action),
			}
			if i < len(files) {
				item.GraphFile = files[i]
			}
			items = append(items, item)
		}
		filename, reported := stmt.GraphForPhase(phase)
		if !reported && len(actions) == 0 {
			continue
		}
		items = append(items, Item{
			Position:  IterationPosition{Phase: phase},
			Label:     phase,
			GraphFile: filename,
		})
	}

	for _, pg := range trailing {
		items = append(items, Item{
			Position:  IterationPosition{Phase: pg.Phase},
			Label:     pg.Phase,
			GraphFile: pg.Filename,
		})
	}

	return items
}

// BuildEdgeItems flattens an edge point's action list. Edges have no phase
// concept; every item lives in the successor pseudo-phase.
func BuildEdgeItems(succ *model.SuccessorData) []Item {
	items := make([]Item, 0, len(succ.Actions))
	for i, action := range succ.Actions {
		items = append(items, Item{
			Position: ActionPosition{Phase: EdgePhase, Index: i},
			Label:    actionLabel(action),
		})
	}
	return items
}

func actionLabel(a model.Action) string {
	if a.Line != "" {
		return a.Line
	}
	return a.Kind
}

// IndexOf locates a position within an item sequence, -1 when absent (for
// example on first entry into a point).
func IndexOf(items []Item, pos Position) int {
	if pos == nil {
		return -1
	}
	for i := range items {
		if SamePosition(items[i].Position, pos) {
			return i
		}
	}
	return -1
}
