// Package highlight translates hover events in the rendered action graph
// into emphasized edges in the CFG view.
package highlight

import (
	"sort"
	"sync"

	"github.com/prusti/pcg/internal/model"
)

// Key identifies one CFG edge by its block pair.
type Key struct {
	From int
	To   int
}

// BranchChoice is the out-of-band metadata attached to an action-graph
// element: the branch point and the successors chosen under it.
type BranchChoice struct {
	From   string   `json:"from"`
	Chosen []string `json:"chosen"`
}

// ElementMeta is the metadata record for one renderable element.
type ElementMeta struct {
	BranchChoices []BranchChoice `json:"branch_choices"`
}

// GraphMeta maps element identifiers to their metadata. It is loaded
// alongside, but is not part of, the renderable graph description.
type GraphMeta map[string]ElementMeta

// KeysFor expands an element's branch choices into the CFG edge keys to
// emphasize: one key per (from, chosen) pair. Unparseable block references
// are skipped; the result is sorted and deduplicated.
func KeysFor(meta ElementMeta) []Key {
	seen := make(map[Key]bool)
	keys := make([]Key, 0, len(meta.BranchChoices))
	for _, bc := range meta.BranchChoices {
		from, err := model.ParseBlockID(bc.From)
		if err != nil {
			continue
		}
		for _, c := range bc.Chosen {
			to, err := model.ParseBlockID(c)
			if err != nil {
				continue
			}
			k := Key{From: from, To: to}
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From == keys[j].From {
			return keys[i].To < keys[j].To
		}
		return keys[i].From < keys[j].From
	})
	return keys
}

// Listener receives the current highlight key set. An empty set means
// "clear".
type Listener func(keys []Key)

// Bridge owns the currently-highlighted-element bookkeeping. At most one
// element's highlight is active; entering a new element first restores any
// visual mutation made for the previous one. The two graph views register
// as listeners instead of being wired to each other.
type Bridge struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int

	owner   string
	restore func()
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (b *Bridge) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Bridge) publish(keys []Key) {
	b.mu.Lock()
	ls := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		ls = append(ls, l)
	}
	b.mu.Unlock()
	for _, l := range ls {
		l(keys)
	}
}

// Enter activates the highlight for a hovered element. restore undoes any
// transient visual mutation the view makes to emphasize the set and runs
// when the element stops owning the highlight.
func (b *Bridge) Enter(elementID string, meta ElementMeta, restore func()) {
	b.mu.Lock()
	prevRestore := b.restore
	prevOwner := b.owner
	b.owner = elementID
	b.restore = restore
	b.mu.Unlock()

	if prevRestore != nil && prevOwner != elementID {
		prevRestore()
	}
	b.publish(KeysFor(meta))
}

// Leave clears the highlight if the element still owns it, running its
// restore and publishing the empty set.
func (b *Bridge) Leave(elementID string) {
	b.mu.Lock()
	if b.owner != elementID {
		b.mu.Unlock()
		return
	}
	restore := b.restore
	b.owner = ""
	b.restore = nil
	b.mu.Unlock()

	if restore != nil {
		restore()
	}
	b.publish(nil)
}

// Reset clears any active highlight on teardown.
func (b *Bridge) Reset() {
	b.mu.Lock()
	restore := b.restore
	b.owner = ""
	b.restore = nil
	b.mu.Unlock()
	if restore != nil {
		restore()
	}
	b.publish(nil)
}
