// Package layout filters the block graph and assigns 2-D positions for
// rendering.
package layout

import (
	"sort"
	"strings"

	"github.com/prusti/pcg/internal/model"
)

// Options controls graph filtering.
type Options struct {
	// ShowUnwind keeps unwind edges and resume blocks in the graph.
	ShowUnwind bool
	// PathRestriction, when non-empty, limits the graph to the given
	// ordered block sequence.
	PathRestriction []int
}

// Filtered is the node/edge set surviving the filter pipeline.
type Filtered struct {
	Nodes []model.MirNode
	Edges []model.MirEdge
}

// Blocks returns the surviving block numbers in ascending order.
func (f *Filtered) Blocks() []int {
	blocks := make([]int, 0, len(f.Nodes))
	for i := range f.Nodes {
		blocks = append(blocks, f.Nodes[i].Block)
	}
	sort.Ints(blocks)
	return blocks
}

// StmtCounts returns per-block statement counts, terminator excluded.
func (f *Filtered) StmtCounts() map[int]int {
	counts := make(map[int]int, len(f.Nodes))
	for i := range f.Nodes {
		counts[f.Nodes[i].Block] = len(f.Nodes[i].Stmts)
	}
	return counts
}

// Filter applies, in order: unwind suppression, path restriction, forward
// reachability from block 0, and dangling-edge removal. Applying it twice
// yields the same set as applying it once.
func Filter(g *model.MirGraph, opts Options) *Filtered {
	keep := make(map[int]bool, len(g.Nodes))
	nodeByBlock := make(map[int]model.MirNode, len(g.Nodes))
	for _, n := range g.Nodes {
		if !opts.ShowUnwind && isResumeBlock(&n) {
			continue
		}
		keep[n.Block] = true
		nodeByBlock[n.Block] = n
	}

	edges := make([]model.MirEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !opts.ShowUnwind && e.Label == "unwind" {
			continue
		}
		edges = append(edges, e)
	}

	if len(opts.PathRestriction) > 0 {
		onPath := make(map[int]bool, len(opts.PathRestriction))
		for _, b := range opts.PathRestriction {
			onPath[b] = true
		}
		for b := range keep {
			if !onPath[b] {
				delete(keep, b)
			}
		}
		edges = edgesWithin(edges, keep)
	}

	reached := reachableFrom(0, keep, edges)
	edges = edgesWithin(edges, reached)

	out := &Filtered{}
	blocks := make([]int, 0, len(reached))
	for b := range reached {
		blocks = append(blocks, b)
	}
	sort.Ints(blocks)
	for _, b := range blocks {
		out.Nodes = append(out.Nodes, nodeByBlock[b])
	}
	out.Edges = edges
	return out
}

// isResumeBlock reports whether the block's terminator is an unwind
// continuation.
func isResumeBlock(n *model.MirNode) bool {
	stmt := strings.ToLower(strings.TrimSpace(n.Terminator.Stmt))
	return stmt == "resume" || strings.HasPrefix(stmt, "unwindresume")
}

// reachableFrom computes forward reachability over the surviving edges via
// breadth-first traversal.
func reachableFrom(start int, keep map[int]bool, edges []model.MirEdge) map[int]bool {
	reached := make(map[int]bool, len(keep))
	if !keep[start] {
		return reached
	}

	succs := make(map[int][]int, len(keep))
	for _, e := range edges {
		from, err := model.ParseBlockID(e.Source)
		if err != nil {
			continue
		}
		to, err := model.ParseBlockID(e.Target)
		if err != nil {
			continue
		}
		if keep[from] && keep[to] {
			succs[from] = append(succs[from], to)
		}
	}

	reached[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, next := range succs[b] {
			if reached[next] {
				continue
			}
			reached[next] = true
			queue = append(queue, next)
		}
	}
	return reached
}

func edgesWithin(edges []model.MirEdge, keep map[int]bool) []model.MirEdge {
	out := make([]model.MirEdge, 0, len(edges))
	for _, e := range edges {
		from, err := model.ParseBlockID(e.Source)
		if err != nil {
			continue
		}
		to, err := model.ParseBlockID(e.Target)
		if err != nil {
			continue
		}
		if keep[from] && keep[to] {
			out = append(out, e)
		}
	}
	return out
}
