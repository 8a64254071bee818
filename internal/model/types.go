package model

// SourcePos is a 1-based line and 0-based display column in the analyzed
// function's source text.
type SourcePos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is the source extent of a statement.
type Span struct {
	Low  SourcePos `json:"low"`
	High SourcePos `json:"high"`
}

// Statement is one MIR statement or terminator as rendered by the analysis.
type Statement struct {
	Stmt                  string   `json:"stmt"`
	DebugStmt             string   `json:"debug_stmt"`
	Span                  Span     `json:"span"`
	LoansInvalidatedStart []string `json:"loans_invalidated_start"`
	LoansInvalidatedMid   []string `json:"loans_invalidated_mid"`
	BorrowsInScopeStart   []string `json:"borrows_in_scope_start"`
	BorrowsInScopeMid     []string `json:"borrows_in_scope_mid"`
}

// MirNode is one basic block of the control-flow graph.
type MirNode struct {
	ID         string      `json:"id"`
	Block      int         `json:"block"`
	Stmts      []Statement `json:"stmts"`
	Terminator Statement   `json:"terminator"`
}

// MirEdge is a labeled control-flow successor edge between blocks.
type MirEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// MirGraph is the node/edge payload loaded from mir.json.
type MirGraph struct {
	Nodes []MirNode `json:"nodes"`
	Edges []MirEdge `json:"edges"`
}

// FunctionMetadata describes one analyzed function from functions.json.
type FunctionMetadata struct {
	Name   string    `json:"name"`
	Source string    `json:"source"`
	Start  SourcePos `json:"start"`
}

// Functions maps function slug to metadata.
type Functions map[string]FunctionMetadata

// Action is one atomic state transformation attributed to an evaluation
// phase.
type Action struct {
	Kind string `json:"kind"`
	Line string `json:"line"`
}
