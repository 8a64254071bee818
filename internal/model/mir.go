package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BlockID renders a block number in the "bb<N>" form used across all
// artifact files.
func BlockID(block int) string {
	return fmt.Sprintf("bb%d", block)
}

// ParseBlockID extracts the block number from a "bb<N>" identifier.
func ParseBlockID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, "bb")
	if !ok {
		return 0, fmt.Errorf("not a block id: %q", id)
	}
	block, err := strconv.Atoi(rest)
	if err != nil || block < 0 {
		return 0, fmt.Errorf("not a block id: %q", id)
	}
	return block, nil
}

// NodeByBlock returns the node for a block number.
func (g *MirGraph) NodeByBlock(block int) (*MirNode, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Block == block {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Blocks returns all block numbers in ascending order.
func (g *MirGraph) Blocks() []int {
	blocks := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		blocks = append(blocks, g.Nodes[i].Block)
	}
	sort.Ints(blocks)
	return blocks
}

// StatementCount returns the number of real statements in a block, not
// counting the terminator.
func (n *MirNode) StatementCount() int {
	return len(n.Stmts)
}

// StatementAt resolves a statement index within the block. The index equal
// to the statement count resolves to the terminator; anything past that is
// out of range.
func (n *MirNode) StatementAt(idx int) (Statement, bool) {
	switch {
	case idx >= 0 && idx < len(n.Stmts):
		return n.Stmts[idx], true
	case idx == len(n.Stmts):
		return n.Terminator, true
	default:
		return Statement{}, false
	}
}

// Successors returns the targets of all edges leaving the block, in edge
// declaration order.
func (g *MirGraph) Successors(block int) []MirEdge {
	id := BlockID(block)
	out := make([]MirEdge, 0, 2)
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
