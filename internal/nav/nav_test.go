package nav

import (
	"reflect"
	"testing"

	"github.com/prusti/pcg/internal/model"
)

func TestPointStringRoundTrip(t *testing.T) {
	points := []Point{
		StatementPoint{Block: 0, StmtIndex: 0},
		StatementPoint{Block: 3, StmtIndex: 2},
		StatementPoint{Block: 12, StmtIndex: 40},
		EdgePoint{From: 0, To: 1},
		EdgePoint{From: 7, To: 3},
	}
	for _, p := range points {
		parsed, err := ParsePoint(p.String())
		if err != nil {
			t.Fatalf("parse %q: %v", p.String(), err)
		}
		if !SamePoint(p, parsed) {
			t.Fatalf("round trip of %q yielded %q", p.String(), parsed.String())
		}
	}
}

func TestParsePointRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "bb1", "bb1[x]", "b1[0]", "bb1[-2]", "bb1 ->", "-> bb2"} {
		if _, err := ParsePoint(s); err == nil {
			t.Fatalf("expected parse error for %q", s)
		}
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	for _, blocks := range [][]int{{0}, {0, 2, 5}, {7, 3, 3, 1}} {
		rendered := FormatPath(blocks)
		parsed, err := ParsePath(rendered)
		if err != nil {
			t.Fatalf("parse %q: %v", rendered, err)
		}
		if !reflect.DeepEqual(blocks, parsed) {
			t.Fatalf("round trip of %q yielded %v", rendered, parsed)
		}
	}

	if blocks, err := ParsePath(""); err != nil || blocks != nil {
		t.Fatalf("empty path must yield an empty restriction, got %v, %v", blocks, err)
	}
	for _, s := range []string{"bb0 ->", "b0", "bb0 -> x"} {
		if _, err := ParsePath(s); err == nil {
			t.Fatalf("expected parse error for %q", s)
		}
	}
}

func stmtWithInitPhase() *model.StmtData {
	return &model.StmtData{
		Actions: model.PhaseActions{
			PreOperands: []model.Action{{Kind: "AddEdge", Line: "Add Edge: x -> y"}},
		},
		Graphs: model.StmtGraphs{
			AtPhase: []model.PhaseGraph{
				{Phase: "init", Filename: "bb0_stmt_0_init.dot"},
				{Phase: "pre_operands", Filename: "bb0_stmt_0_pre_operands.dot"},
				{Phase: "post_operands", Filename: "bb0_stmt_0_post_operands.dot"},
				{Phase: "pre_main", Filename: "bb0_stmt_0_pre_main.dot"},
				{Phase: "post_main", Filename: "bb0_stmt_0_post_main.dot"},
			},
			Actions: model.ActionGraphFiles{
				PreOperands: []string{"bb0_stmt_0_pre_operands_action_0.dot"},
			},
		},
	}
}

func TestBuildStatementItemsOrdering(t *testing.T) {
	items := BuildStatementItems(stmtWithInitPhase())

	want := []Position{
		IterationPosition{Phase: "init"},
		ActionPosition{Phase: "pre_operands", Index: 0},
		IterationPosition{Phase: "pre_operands"},
		IterationPosition{Phase: "post_operands"},
		IterationPosition{Phase: "pre_main"},
		IterationPosition{Phase: "post_main"},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, pos := range want {
		if !SamePosition(items[i].Position, pos) {
			t.Fatalf("item %d: expected %v, got %v", i, pos, items[i].Position)
		}
	}
	if items[1].GraphFile != "bb0_stmt_0_pre_operands_action_0.dot" {
		t.Fatalf("action item lost its graph file: %q", items[1].GraphFile)
	}
}

func TestBuildStatementItemsStable(t *testing.T) {
	stmt := stmtWithInitPhase()
	first := BuildStatementItems(stmt)
	second := BuildStatementItems(stmt)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("item order differs across rebuilds with identical input")
	}
}

func TestBuildEdgeItemsFlat(t *testing.T) {
	succ := &model.SuccessorData{Actions: []model.Action{
		{Kind: "RemoveEdge"},
		{Kind: "Weaken", Line: "Weaken x from E to W"},
	}}
	items := BuildEdgeItems(succ)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for i, item := range items {
		ap, ok := item.Position.(ActionPosition)
		if !ok || ap.Phase != EdgePhase || ap.Index != i {
			t.Fatalf("item %d: unexpected position %v", i, item.Position)
		}
	}
	if items[1].Label != "Weaken x from E to W" {
		t.Fatalf("expected rendered line label, got %q", items[1].Label)
	}
}

func TestStepEntersAtEnds(t *testing.T) {
	items := BuildStatementItems(stmtWithInitPhase())

	res := Step(items, InitialPosition(), Forward)
	if res.Crossed || !SamePosition(res.Position, items[0].Position) {
		t.Fatalf("forward entry should select the first item, got %+v", res)
	}
	res = Step(items, InitialPosition(), Backward)
	if res.Crossed || !SamePosition(res.Position, items[len(items)-1].Position) {
		t.Fatalf("backward entry should select the last item, got %+v", res)
	}
}

func TestStepSignalsBoundaryExactlyOnce(t *testing.T) {
	items := BuildStatementItems(stmtWithInitPhase())
	last := items[len(items)-1].Position

	res := Step(items, last, Forward)
	if !res.Crossed {
		t.Fatalf("expected boundary crossing past the last item, got %+v", res)
	}
	if res.Position != nil {
		t.Fatalf("a crossing must not also carry a position")
	}

	res = Step(items, items[0].Position, Backward)
	if !res.Crossed {
		t.Fatalf("expected boundary crossing before the first item, got %+v", res)
	}
}

func TestWrapStepDegradesToWrap(t *testing.T) {
	items := BuildStatementItems(stmtWithInitPhase())
	last := items[len(items)-1].Position

	pos := WrapStep(items, last, Forward)
	if !SamePosition(pos, items[0].Position) {
		t.Fatalf("expected wrap to first item, got %v", pos)
	}
	pos = WrapStep(items, items[0].Position, Backward)
	if !SamePosition(pos, last) {
		t.Fatalf("expected wrap to last item, got %v", pos)
	}
}

func TestBlockOrderResolveWrapsThroughFilteredList(t *testing.T) {
	order := BlockOrder{
		Blocks:     []int{0, 2, 5},
		StmtCounts: map[int]int{0: 2, 2: 0, 5: 1},
	}

	// Within a block.
	next, ok := order.Resolve(StatementPoint{Block: 0, StmtIndex: 1}, Forward)
	if !ok || next != (StatementPoint{Block: 0, StmtIndex: 2}) {
		t.Fatalf("expected advance to terminator, got %v", next)
	}
	// Past the terminator into the next filtered block, skipping the
	// filtered-out block 1.
	next, ok = order.Resolve(StatementPoint{Block: 0, StmtIndex: 2}, Forward)
	if !ok || next != (StatementPoint{Block: 2}) {
		t.Fatalf("expected crossing into block 2, got %v", next)
	}
	// Wrap at the end of the function.
	next, ok = order.Resolve(StatementPoint{Block: 5, StmtIndex: 1}, Forward)
	if !ok || next != (StatementPoint{Block: 0}) {
		t.Fatalf("expected wrap to block 0, got %v", next)
	}
	// Backward from the first statement lands on the previous block's
	// terminator, wrapping.
	prev, ok := order.Resolve(StatementPoint{Block: 0, StmtIndex: 0}, Backward)
	if !ok || prev != (StatementPoint{Block: 5, StmtIndex: 1}) {
		t.Fatalf("expected wrap to block 5 terminator, got %v", prev)
	}
}
