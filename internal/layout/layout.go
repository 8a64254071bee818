package layout

import (
	"math"
	"sort"

	"github.com/prusti/pcg/internal/model"
)

// Node sizing constants for the rendered statement table.
const (
	NodeWidth       = 280.0
	headerHeight    = 28.0
	stmtRowHeight   = 18.0
	actionRowHeight = 14.0

	rankGap = 60.0
	nodeGap = 40.0
)

// HeightInputs carries the per-block inputs node sizing depends on.
type HeightInputs struct {
	// ActionCounts maps block -> total action count across its
	// statements, used when the actions-inline toggle is on.
	ActionCounts  map[int]int
	InlineActions bool
	// Measured overrides the estimate with a measured render height.
	Measured map[int]float64
}

// NodeHeight estimates the render height of a block's statement table. The
// terminator row counts as a statement row.
func NodeHeight(n *model.MirNode, in HeightInputs) float64 {
	if h, ok := in.Measured[n.Block]; ok {
		return h
	}
	h := headerHeight + float64(len(n.Stmts)+1)*stmtRowHeight
	if in.InlineActions {
		h += float64(in.ActionCounts[n.Block]) * actionRowHeight
	}
	return h
}

// Placement is one positioned node: an (x, y) centroid plus its box.
type Placement struct {
	Block  int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Result is a computed diagram layout.
type Result struct {
	Placements map[int]Placement
	Edges      []model.MirEdge
	// Height is the overall diagram height. When the layout reports a
	// non-finite extent, HeightUnbounded is set and Height must be
	// ignored so the container can auto-size.
	Height          float64
	HeightUnbounded bool
	Width           float64
}

// Compute runs a hierarchical layered layout: blocks are ranked top to
// bottom by breadth-first depth from the entry block, ordered within a
// rank by predecessor barycenter, and assigned centroids.
func Compute(f *Filtered, in HeightInputs) *Result {
	res := &Result{Placements: make(map[int]Placement, len(f.Nodes)), Edges: f.Edges}
	if len(f.Nodes) == 0 {
		return res
	}

	heights := make(map[int]float64, len(f.Nodes))
	for i := range f.Nodes {
		heights[f.Nodes[i].Block] = NodeHeight(&f.Nodes[i], in)
	}

	ranks := rankBlocks(f)
	maxRank := 0
	byRank := make(map[int][]int)
	for block, r := range ranks {
		byRank[r] = append(byRank[r], block)
		if r > maxRank {
			maxRank = r
		}
	}
	for _, row := range byRank {
		sort.Ints(row)
	}
	orderByBarycenter(f, byRank, maxRank)

	y := 0.0
	totalWidth := 0.0
	for r := 0; r <= maxRank; r++ {
		row := byRank[r]
		if len(row) == 0 {
			continue
		}
		rowHeight := 0.0
		rowWidth := float64(len(row))*NodeWidth + float64(len(row)-1)*nodeGap
		if rowWidth > totalWidth {
			totalWidth = rowWidth
		}
		x := 0.0
		for _, block := range row {
			h := heights[block]
			res.Placements[block] = Placement{
				Block:  block,
				X:      x + NodeWidth/2,
				Y:      y + h/2,
				Width:  NodeWidth,
				Height: h,
			}
			x += NodeWidth + nodeGap
			if h > rowHeight {
				rowHeight = h
			}
		}
		y += rowHeight + rankGap
	}
	if y >= rankGap {
		y -= rankGap
	}

	if !isFinite(y) || !isFinite(totalWidth) {
		res.HeightUnbounded = true
		return res
	}
	res.Height = y
	res.Width = totalWidth
	return res
}

// rankBlocks assigns each block its breadth-first depth from the entry
// block. BFS depth is cycle-safe and keeps loop back edges from inflating
// ranks.
func rankBlocks(f *Filtered) map[int]int {
	succs := make(map[int][]int, len(f.Nodes))
	for _, e := range f.Edges {
		from, err1 := model.ParseBlockID(e.Source)
		to, err2 := model.ParseBlockID(e.Target)
		if err1 != nil || err2 != nil {
			continue
		}
		succs[from] = append(succs[from], to)
	}

	ranks := make(map[int]int, len(f.Nodes))
	ranks[0] = 0
	queue := []int{0}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, next := range succs[b] {
			if _, seen := ranks[next]; seen {
				continue
			}
			ranks[next] = ranks[b] + 1
			queue = append(queue, next)
		}
	}
	// Filtered guarantees reachability from block 0, so every node has a
	// rank; guard anyway for isolated entry-only graphs.
	for i := range f.Nodes {
		if _, ok := ranks[f.Nodes[i].Block]; !ok {
			ranks[f.Nodes[i].Block] = 0
		}
	}
	return ranks
}

// orderByBarycenter runs a few downward passes reordering each rank by the
// mean position of predecessors in the rank above.
func orderByBarycenter(f *Filtered, byRank map[int][]int, maxRank int) {
	preds := predecessors(f)
	for pass := 0; pass < 3; pass++ {
		for r := 1; r <= maxRank; r++ {
			above := byRank[r-1]
			slot := make(map[int]int, len(above))
			for i, b := range above {
				slot[b] = i
			}
			row := byRank[r]
			sort.SliceStable(row, func(i, j int) bool {
				return barycenter(row[i], preds, slot) < barycenter(row[j], preds, slot)
			})
		}
	}
}

func barycenter(block int, preds map[int][]int, slot map[int]int) float64 {
	sum, n := 0.0, 0
	for _, p := range preds[block] {
		if s, ok := slot[p]; ok {
			sum += float64(s)
			n++
		}
	}
	if n == 0 {
		return float64(block)
	}
	return sum / float64(n)
}

func predecessors(f *Filtered) map[int][]int {
	preds := make(map[int][]int, len(f.Nodes))
	for _, e := range f.Edges {
		from, err1 := model.ParseBlockID(e.Source)
		to, err2 := model.ParseBlockID(e.Target)
		if err1 != nil || err2 != nil {
			continue
		}
		preds[to] = append(preds[to], from)
	}
	return preds
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
