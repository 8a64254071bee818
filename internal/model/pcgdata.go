package model

import (
	"encoding/json"
	"strconv"
)

// Canonical evaluation phases, in order. Any other phase reported by the
// analysis (e.g. "initial", "join bb3") precedes pre_operands.
const (
	PhasePreOperands  = "pre_operands"
	PhasePostOperands = "post_operands"
	PhasePreMain      = "pre_main"
	PhasePostMain     = "post_main"
)

// EvalPhases returns the canonical evaluation phases in order.
func EvalPhases() [4]string {
	return [4]string{PhasePreOperands, PhasePostOperands, PhasePreMain, PhasePostMain}
}

// IsEvalPhase reports whether name is one of the canonical evaluation
// phases.
func IsEvalPhase(name string) bool {
	switch name {
	case PhasePreOperands, PhasePostOperands, PhasePreMain, PhasePostMain:
		return true
	}
	return false
}

// PhaseActions holds the per-phase action lists for one statement.
type PhaseActions struct {
	PreOperands  []Action `json:"pre_operands"`
	PostOperands []Action `json:"post_operands"`
	PreMain      []Action `json:"pre_main"`
	PostMain     []Action `json:"post_main"`
}

// ForPhase returns the action list for a canonical phase name, or nil for
// any other phase.
func (p *PhaseActions) ForPhase(name string) []Action {
	switch name {
	case PhasePreOperands:
		return p.PreOperands
	case PhasePostOperands:
		return p.PostOperands
	case PhasePreMain:
		return p.PreMain
	case PhasePostMain:
		return p.PostMain
	}
	return nil
}

// PhaseGraph names the dot file rendered at one fixpoint phase.
type PhaseGraph struct {
	Phase    string `json:"phase"`
	Filename string `json:"filename"`
}

// ActionGraphFiles holds per-phase dot filenames, one per action, aligned
// with the corresponding PhaseActions lists.
type ActionGraphFiles struct {
	PreOperands  []string `json:"pre_operands"`
	PostOperands []string `json:"post_operands"`
	PreMain      []string `json:"pre_main"`
	PostMain     []string `json:"post_main"`
}

// ForPhase returns the action graph filenames for a canonical phase name.
func (a *ActionGraphFiles) ForPhase(name string) []string {
	switch name {
	case PhasePreOperands:
		return a.PreOperands
	case PhasePostOperands:
		return a.PostOperands
	case PhasePreMain:
		return a.PreMain
	case PhasePostMain:
		return a.PostMain
	}
	return nil
}

// StmtGraphs lists the dot files produced for one statement: one per
// reported phase, in encounter order, plus one per action.
type StmtGraphs struct {
	AtPhase []PhaseGraph     `json:"at_phase"`
	Actions ActionGraphFiles `json:"actions"`
}

// StmtData is the analysis payload for one statement.
type StmtData struct {
	Actions PhaseActions `json:"actions"`
	Graphs  StmtGraphs   `json:"graphs"`
}

// PhaseNames returns the reported phase names in encounter order.
func (s *StmtData) PhaseNames() []string {
	names := make([]string, 0, len(s.Graphs.AtPhase))
	for _, pg := range s.Graphs.AtPhase {
		names = append(names, pg.Phase)
	}
	return names
}

// GraphForPhase returns the dot filename rendered at the named phase.
func (s *StmtData) GraphForPhase(name string) (string, bool) {
	for _, pg := range s.Graphs.AtPhase {
		if pg.Phase == name {
			return pg.Filename, true
		}
	}
	return "", false
}

// SuccessorData is the analysis payload for one control-flow edge.
type SuccessorData struct {
	Actions []Action `json:"actions"`
}

// BlockData is the analysis payload for one basic block.
type BlockData struct {
	Statements []StmtData               `json:"statements"`
	Successors map[string]SuccessorData `json:"successors"`
	LoopData   json.RawMessage          `json:"loop_data"`
}

// PcgData is the full per-function analysis payload from pcg_data.json,
// keyed by block.
type PcgData map[string]BlockData

// Block looks up the payload for a block number. The producer has keyed
// blocks both as "bb<N>" and as a bare number across versions, so both
// forms are accepted.
func (d PcgData) Block(block int) (BlockData, bool) {
	if bd, ok := d[BlockID(block)]; ok {
		return bd, true
	}
	bd, ok := d[strconv.Itoa(block)]
	return bd, ok
}

// Successor returns the edge payload for the successor edge to a block.
func (b *BlockData) Successor(toBlock int) (SuccessorData, bool) {
	if sd, ok := b.Successors[BlockID(toBlock)]; ok {
		return sd, true
	}
	sd, ok := b.Successors[strconv.Itoa(toBlock)]
	return sd, ok
}

// BlockIterations is the per-block iteration payload from
// block_<N>_iterations.json: one StmtGraphs per statement, terminator
// included.
type BlockIterations []StmtGraphs

// AllIterations bundles every block's iteration payload, as written to
// all_iterations.json.
type AllIterations map[string]BlockIterations
