package nav

// Direction of a navigation step.
type Direction int

const (
	Forward Direction = iota + 1
	Backward
)

// StepResult is either a new in-sequence position or a boundary-crossing
// signal that the caller resolves against the filtered block order.
type StepResult struct {
	Position Position
	Crossed  bool
	Dir      Direction
}

// Step advances within a point's item sequence. A position not present in
// the sequence enters at the first (forward) or last (backward) item.
// Stepping past either end never wraps within the statement; it reports a
// boundary crossing instead.
func Step(items []Item, current Position, dir Direction) StepResult {
	if len(items) == 0 {
		return StepResult{Crossed: true, Dir: dir}
	}

	idx := IndexOf(items, current)
	if idx == -1 {
		if dir == Forward {
			return StepResult{Position: items[0].Position, Dir: dir}
		}
		return StepResult{Position: items[len(items)-1].Position, Dir: dir}
	}

	if dir == Forward {
		idx++
	} else {
		idx--
	}
	if idx < 0 || idx >= len(items) {
		return StepResult{Crossed: true, Dir: dir}
	}
	return StepResult{Position: items[idx].Position, Dir: dir}
}

// WrapStep is the degraded stepping mode used when no filtered-block
// context exists: instead of crossing into a neighbor, it wraps within the
// sequence.
func WrapStep(items []Item, current Position, dir Direction) Position {
	res := Step(items, current, dir)
	if !res.Crossed {
		return res.Position
	}
	if len(items) == 0 {
		return current
	}
	if dir == Forward {
		return items[0].Position
	}
	return items[len(items)-1].Position
}

// BlockOrder is the filtered block list a boundary crossing advances
// through, with per-block statement counts (the terminator occupies index
// StmtCounts[block]).
type BlockOrder struct {
	Blocks     []int
	StmtCounts map[int]int
}

// Resolve maps a boundary crossing to the next or previous statement point
// in block order, wrapping at the ends of the filtered list. The returned
// position is the sentinel initial position of the new point. ok is false
// when the order is empty.
func (o BlockOrder) Resolve(from StatementPoint, dir Direction) (StatementPoint, bool) {
	if len(o.Blocks) == 0 {
		return StatementPoint{}, false
	}

	at := -1
	for i, b := range o.Blocks {
		if b == from.Block {
			at = i
			break
		}
	}
	if at == -1 {
		// The current block fell out of the filter; restart at the
		// filtered entry block.
		return StatementPoint{Block: o.Blocks[0]}, true
	}

	if dir == Forward {
		if from.StmtIndex < o.StmtCounts[from.Block] {
			return StatementPoint{Block: from.Block, StmtIndex: from.StmtIndex + 1}, true
		}
		next := o.Blocks[(at+1)%len(o.Blocks)]
		return StatementPoint{Block: next}, true
	}

	if from.StmtIndex > 0 {
		return StatementPoint{Block: from.Block, StmtIndex: from.StmtIndex - 1}, true
	}
	prev := o.Blocks[(at-1+len(o.Blocks))%len(o.Blocks)]
	return StatementPoint{Block: prev, StmtIndex: o.StmtCounts[prev]}, true
}
