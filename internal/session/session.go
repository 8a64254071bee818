// Package session owns the navigation state of one viewer: the selected
// function, the selected program point, and the cursor within that point's
// item sequence. It coordinates the cache, the graph filter and the
// persisted view state.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/prusti/pcg/internal/cache"
	"github.com/prusti/pcg/internal/highlight"
	"github.com/prusti/pcg/internal/layout"
	"github.com/prusti/pcg/internal/model"
	"github.com/prusti/pcg/internal/nav"
	"github.com/prusti/pcg/internal/viewstate"
)

// ErrStale reports that an async selection completed after a newer one
// superseded it. Callers drop the result.
var ErrStale = errors.New("selection superseded")

// View is the immutable snapshot the render layer consumes. It is rebuilt
// after every mutation; nothing in it aliases session-internal state that
// later changes.
type View struct {
	Function string
	Point    nav.Point
	Position nav.Position
	Items    []nav.Item
	// GraphFile names the dot graph to render for the current position,
	// empty when none applies.
	GraphFile string
	Filtered  *layout.Filtered
	Mir       *model.MirGraph
}

// Session serializes all navigation mutations behind one lock. Fetches run
// outside it; every fetch carries a selection token and a completion whose
// token is no longer current is discarded.
type Session struct {
	cache *cache.ArtifactCache
	state viewstate.Store

	mu       sync.Mutex
	token    uint64
	fn       string
	arts     *cache.FunctionArtifacts
	opts     layout.Options
	filtered *layout.Filtered
	point    nav.Point
	position nav.Position
}

// New builds a session over the cache, restoring persisted toggles.
func New(c *cache.ArtifactCache, state viewstate.Store) *Session {
	return &Session{
		cache: c,
		state: state,
		opts: layout.Options{
			ShowUnwind: viewstate.GetBool(state, viewstate.KeyShowUnwind, false),
		},
	}
}

// Functions lists the analyzed functions.
func (s *Session) Functions(ctx context.Context) (model.Functions, error) {
	return s.cache.Functions(ctx)
}

// Select switches the session to a function. The fetch happens outside the
// lock; when a newer Select lands first this one returns ErrStale and
// leaves the session untouched. The previously persisted point for the
// function is restored when it still resolves, otherwise the selection
// enters at the start of block 0.
func (s *Session) Select(ctx context.Context, fn string) error {
	s.mu.Lock()
	s.token++
	token := s.token
	s.mu.Unlock()

	arts, err := s.cache.Function(ctx, fn)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return ErrStale
	}
	if err != nil {
		return err
	}

	s.fn = fn
	s.arts = arts
	s.opts.PathRestriction = s.restorePathLocked(fn)
	s.refilterLocked()
	s.point = s.restorePointLocked(fn)
	s.position = nav.InitialPosition()

	_ = s.state.Set(viewstate.KeySelectedFunction, fn)
	s.persistPointLocked()
	return nil
}

func (s *Session) restorePointLocked(fn string) nav.Point {
	stored, ok := s.state.Get(viewstate.KeySelectedFunction)
	if !ok || stored != fn {
		return nav.StatementPoint{Block: 0}
	}
	raw, ok := s.state.Get(viewstate.KeySelectedPoint)
	if !ok {
		return nav.StatementPoint{Block: 0}
	}
	p, err := nav.ParsePoint(raw)
	if err != nil || !s.pointValidLocked(p) {
		return nav.StatementPoint{Block: 0}
	}
	return p
}

// restorePathLocked reloads the persisted path restriction when the stored
// selection is for the same function; switching functions drops it.
func (s *Session) restorePathLocked(fn string) []int {
	stored, ok := s.state.Get(viewstate.KeySelectedFunction)
	if !ok || stored != fn {
		s.state.Delete(viewstate.KeySelectedPath)
		return nil
	}
	raw, ok := s.state.Get(viewstate.KeySelectedPath)
	if !ok {
		return nil
	}
	blocks, err := nav.ParsePath(raw)
	if err != nil {
		s.state.Delete(viewstate.KeySelectedPath)
		return nil
	}
	return blocks
}

func (s *Session) pointValidLocked(p nav.Point) bool {
	counts := s.filtered.StmtCounts()
	switch p := p.(type) {
	case nav.StatementPoint:
		count, ok := counts[p.Block]
		return ok && p.StmtIndex <= count
	case nav.EdgePoint:
		_, fromOK := counts[p.From]
		_, toOK := counts[p.To]
		return fromOK && toOK
	}
	return false
}

func (s *Session) refilterLocked() {
	s.filtered = layout.Filter(s.arts.Mir, s.opts)
}

func (s *Session) persistPointLocked() {
	if s.point != nil {
		_ = s.state.Set(viewstate.KeySelectedPoint, s.point.String())
	}
}

// SetPoint selects a program point directly, for example from a click in
// the CFG or source panel. The cursor resets to the entry sentinel.
func (s *Session) SetPoint(p nav.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.point = p
	s.position = nav.InitialPosition()
	s.persistPointLocked()
}

// SetShowUnwind flips the unwind-visibility toggle, persists it and
// refilters. A selected point that no longer survives the filter snaps
// back to the filtered entry block.
func (s *Session) SetShowUnwind(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.ShowUnwind = show
	viewstate.SetBool(s.state, viewstate.KeyShowUnwind, show)
	s.applyFilterLocked()
}

// SetPathRestriction limits the graph to the given block sequence and
// persists it for the selected function; nil clears the restriction.
func (s *Session) SetPathRestriction(blocks []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.PathRestriction = blocks
	if len(blocks) == 0 {
		s.state.Delete(viewstate.KeySelectedPath)
	} else {
		_ = s.state.Set(viewstate.KeySelectedPath, nav.FormatPath(blocks))
	}
	s.applyFilterLocked()
}

func (s *Session) applyFilterLocked() {
	if s.arts == nil {
		return
	}
	s.refilterLocked()
	if s.point != nil && !s.pointValidLocked(s.point) {
		blocks := s.filtered.Blocks()
		if len(blocks) > 0 {
			s.point = nav.StatementPoint{Block: blocks[0]}
		}
		s.position = nav.InitialPosition()
		s.persistPointLocked()
	}
}

// Options returns the active filter options.
func (s *Session) Options() layout.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Step advances the cursor one item. Crossing a statement's boundary moves
// to the adjacent statement in filtered block order and enters it from the
// side stepped in from; on an edge point, crossing forward enters the
// target block and crossing backward re-enters the source terminator.
func (s *Session) Step(dir nav.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arts == nil || s.point == nil {
		return
	}

	items := s.itemsLocked(s.point)
	res := nav.Step(items, s.position, dir)
	if !res.Crossed {
		s.position = res.Position
		return
	}

	next, ok := s.crossLocked(dir)
	if !ok {
		// No block context to cross into; wrap within the sequence.
		s.position = nav.WrapStep(items, s.position, dir)
		return
	}
	s.point = next
	s.enterLocked(dir)
	s.persistPointLocked()
}

func (s *Session) crossLocked(dir nav.Direction) (nav.Point, bool) {
	order := nav.BlockOrder{
		Blocks:     s.filtered.Blocks(),
		StmtCounts: s.filtered.StmtCounts(),
	}
	switch p := s.point.(type) {
	case nav.StatementPoint:
		next, ok := order.Resolve(p, dir)
		if !ok {
			return nil, false
		}
		return next, true
	case nav.EdgePoint:
		counts := s.filtered.StmtCounts()
		if dir == nav.Forward {
			if _, ok := counts[p.To]; ok {
				return nav.StatementPoint{Block: p.To}, true
			}
			return nil, false
		}
		if count, ok := counts[p.From]; ok {
			return nav.StatementPoint{Block: p.From, StmtIndex: count}, true
		}
		return nil, false
	}
	return nil, false
}

// enterLocked places the cursor on the first item of the new point when
// stepping forward and the last when stepping backward. A point with no
// items keeps the entry sentinel; the next step crosses again.
func (s *Session) enterLocked(dir nav.Direction) {
	s.position = nav.InitialPosition()
	items := s.itemsLocked(s.point)
	if len(items) == 0 {
		return
	}
	if res := nav.Step(items, s.position, dir); !res.Crossed {
		s.position = res.Position
	}
}

func (s *Session) itemsLocked(p nav.Point) []nav.Item {
	switch p := p.(type) {
	case nav.StatementPoint:
		bd, ok := s.arts.Pcg.Block(p.Block)
		if !ok || p.StmtIndex >= len(bd.Statements) {
			return nil
		}
		return nav.BuildStatementItems(&bd.Statements[p.StmtIndex])
	case nav.EdgePoint:
		bd, ok := s.arts.Pcg.Block(p.From)
		if !ok {
			return nil
		}
		sd, ok := bd.Successor(p.To)
		if !ok {
			return nil
		}
		return nav.BuildEdgeItems(&sd)
	}
	return nil
}

// Snapshot returns the current view. Safe to call from the render loop.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Function: s.fn,
		Point:    s.point,
		Position: s.position,
		Filtered: s.filtered,
	}
	if s.arts != nil {
		v.Mir = s.arts.Mir
	}
	if s.arts != nil && s.point != nil {
		v.Items = s.itemsLocked(s.point)
		v.GraphFile = graphFileFor(v.Items, s.position)
	}
	return v
}

// graphFileFor picks the dot file for the cursor: the current item's when
// the cursor sits on one, otherwise the first item that has one.
func graphFileFor(items []nav.Item, pos nav.Position) string {
	if idx := nav.IndexOf(items, pos); idx != -1 && items[idx].GraphFile != "" {
		return items[idx].GraphFile
	}
	for _, it := range items {
		if it.GraphFile != "" {
			return it.GraphFile
		}
	}
	return ""
}

// GraphText fetches the dot text for the current function.
func (s *Session) GraphText(ctx context.Context, filename string) (string, error) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	return s.cache.GraphText(ctx, fn, filename)
}

// GraphMeta loads the element metadata sidecar for a dot graph. A graph
// without a sidecar yields an empty map.
func (s *Session) GraphMeta(ctx context.Context, filename string) (highlight.GraphMeta, error) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()

	meta := highlight.GraphMeta{}
	ok, err := s.cache.GraphMeta(ctx, fn, filename, &meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return highlight.GraphMeta{}, nil
	}
	return meta, nil
}
