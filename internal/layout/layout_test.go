package layout

import (
	"reflect"
	"testing"

	"github.com/prusti/pcg/internal/model"
)

func block(n int, stmts int, terminator string) model.MirNode {
	node := model.MirNode{
		ID:         model.BlockID(n),
		Block:      n,
		Terminator: model.Statement{Stmt: terminator},
	}
	for i := 0; i < stmts; i++ {
		node.Stmts = append(node.Stmts, model.Statement{Stmt: "x = y"})
	}
	return node
}

func edge(from, to int, label string) model.MirEdge {
	return model.MirEdge{Source: model.BlockID(from), Target: model.BlockID(to), Label: label}
}

func TestFilterHidesUnwindEdgesAndResumeBlocks(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{
			block(0, 1, "switchInt"),
			block(1, 0, "return"),
			block(2, 0, "resume"),
		},
		Edges: []model.MirEdge{
			edge(0, 1, "true"),
			edge(0, 2, "unwind"),
		},
	}

	f := Filter(g, Options{})
	if got := f.Blocks(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("expected blocks [0 1], got %v", got)
	}
	if len(f.Edges) != 1 || f.Edges[0].Target != "bb1" {
		t.Fatalf("expected single edge 0->1, got %v", f.Edges)
	}

	shown := Filter(g, Options{ShowUnwind: true})
	if got := shown.Blocks(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("expected all blocks with unwind shown, got %v", got)
	}
}

func TestFilterDropsUnreachableBlocks(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{
			block(0, 0, "goto"),
			block(1, 0, "return"),
			block(2, 0, "return"), // no incoming edge
		},
		Edges: []model.MirEdge{edge(0, 1, "goto")},
	}

	f := Filter(g, Options{})
	if got := f.Blocks(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("expected unreachable block 2 dropped, got %v", got)
	}
	for _, b := range f.Blocks() {
		if b == 2 {
			t.Fatalf("block 2 must be absent from the rendered set")
		}
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{
			block(0, 2, "switchInt"),
			block(1, 1, "return"),
			block(2, 0, "resume"),
			block(3, 0, "return"),
		},
		Edges: []model.MirEdge{
			edge(0, 1, "true"),
			edge(0, 2, "unwind"),
			edge(1, 3, "goto"),
		},
	}

	once := Filter(g, Options{})
	twice := Filter(&model.MirGraph{Nodes: once.Nodes, Edges: once.Edges}, Options{})
	if !reflect.DeepEqual(once.Blocks(), twice.Blocks()) {
		t.Fatalf("filter not idempotent on blocks: %v vs %v", once.Blocks(), twice.Blocks())
	}
	if !reflect.DeepEqual(once.Edges, twice.Edges) {
		t.Fatalf("filter not idempotent on edges")
	}
}

func TestFilterPathRestriction(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{
			block(0, 0, "switchInt"),
			block(1, 0, "goto"),
			block(2, 0, "goto"),
			block(3, 0, "return"),
		},
		Edges: []model.MirEdge{
			edge(0, 1, "true"),
			edge(0, 2, "false"),
			edge(1, 3, "goto"),
			edge(2, 3, "goto"),
		},
	}

	f := Filter(g, Options{PathRestriction: []int{0, 1, 3}})
	if got := f.Blocks(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Fatalf("expected restricted path blocks, got %v", got)
	}
	for _, e := range f.Edges {
		if e.Source == "bb2" || e.Target == "bb2" {
			t.Fatalf("edge touching off-path block survived: %v", e)
		}
	}
}

func TestComputeRanksTopToBottom(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{
			block(0, 1, "switchInt"),
			block(1, 2, "goto"),
			block(2, 0, "goto"),
			block(3, 0, "return"),
		},
		Edges: []model.MirEdge{
			edge(0, 1, "true"),
			edge(0, 2, "false"),
			edge(1, 3, "goto"),
			edge(2, 3, "goto"),
		},
	}

	f := Filter(g, Options{})
	res := Compute(f, HeightInputs{})
	if res.HeightUnbounded {
		t.Fatalf("unexpected unbounded height")
	}
	if len(res.Placements) != 4 {
		t.Fatalf("expected 4 placements, got %d", len(res.Placements))
	}

	p0, p1, p3 := res.Placements[0], res.Placements[1], res.Placements[3]
	if !(p0.Y < p1.Y && p1.Y < p3.Y) {
		t.Fatalf("expected descending ranks, got y0=%g y1=%g y3=%g", p0.Y, p1.Y, p3.Y)
	}
	if res.Height <= 0 {
		t.Fatalf("expected positive diagram height, got %g", res.Height)
	}
}

func TestNodeHeightCountsInlineActions(t *testing.T) {
	n := block(1, 3, "return")
	plain := NodeHeight(&n, HeightInputs{})
	inlined := NodeHeight(&n, HeightInputs{
		InlineActions: true,
		ActionCounts:  map[int]int{1: 5},
	})
	if inlined <= plain {
		t.Fatalf("inline actions must increase height: %g vs %g", inlined, plain)
	}
	measured := NodeHeight(&n, HeightInputs{Measured: map[int]float64{1: 123}})
	if measured != 123 {
		t.Fatalf("measured height must win, got %g", measured)
	}
}

func TestEngineRecomputesOnlyOnInputChange(t *testing.T) {
	g := &model.MirGraph{
		Nodes: []model.MirNode{block(0, 1, "goto"), block(1, 0, "return")},
		Edges: []model.MirEdge{edge(0, 1, "goto")},
	}
	f := Filter(g, Options{})

	var engine Engine
	first := engine.Layout(f, HeightInputs{})
	second := engine.Layout(f, HeightInputs{})
	if first != second {
		t.Fatalf("expected cached result for identical inputs")
	}

	third := engine.Layout(f, HeightInputs{InlineActions: true, ActionCounts: map[int]int{0: 2}})
	if third == second {
		t.Fatalf("expected recompute when height inputs change")
	}
}
