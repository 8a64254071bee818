package highlight

import (
	"reflect"
	"testing"
)

func TestKeysForExpandsBranchChoices(t *testing.T) {
	meta := ElementMeta{BranchChoices: []BranchChoice{
		{From: "bb0", Chosen: []string{"bb1", "bb2"}},
	}}
	want := []Key{{From: 0, To: 1}, {From: 0, To: 2}}
	if got := KeysFor(meta); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestKeysForSkipsMalformedRefsAndDedupes(t *testing.T) {
	meta := ElementMeta{BranchChoices: []BranchChoice{
		{From: "bb3", Chosen: []string{"bb4", "nonsense", "bb4"}},
		{From: "broken", Chosen: []string{"bb9"}},
	}}
	want := []Key{{From: 3, To: 4}}
	if got := KeysFor(meta); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHoverPublishesAndExitClears(t *testing.T) {
	b := NewBridge()
	var last []Key
	calls := 0
	unsubscribe := b.Subscribe(func(keys []Key) {
		last = keys
		calls++
	})
	defer unsubscribe()

	meta := ElementMeta{BranchChoices: []BranchChoice{
		{From: "bb0", Chosen: []string{"bb1", "bb2"}},
	}}
	b.Enter("elem-1", meta, nil)
	if want := []Key{{0, 1}, {0, 2}}; !reflect.DeepEqual(last, want) {
		t.Fatalf("expected %v on hover, got %v", want, last)
	}

	b.Leave("elem-1")
	if len(last) != 0 {
		t.Fatalf("expected empty set on hover exit, got %v", last)
	}
	if calls != 2 {
		t.Fatalf("expected 2 publishes, got %d", calls)
	}
}

func TestEnteringNewElementRestoresPrevious(t *testing.T) {
	b := NewBridge()
	restored := false
	b.Enter("elem-1", ElementMeta{}, func() { restored = true })

	b.Enter("elem-2", ElementMeta{}, nil)
	if !restored {
		t.Fatalf("entering a new element must restore the previous one")
	}

	// elem-1 no longer owns the highlight; its late Leave is a no-op.
	var published bool
	defer b.Subscribe(func([]Key) { published = true })()
	b.Leave("elem-1")
	if published {
		t.Fatalf("a stale leave must not clear the new owner's highlight")
	}
}

func TestResetRestoresOnTeardown(t *testing.T) {
	b := NewBridge()
	restored := false
	b.Enter("elem-1", ElementMeta{}, func() { restored = true })
	b.Reset()
	if !restored {
		t.Fatalf("teardown must restore transient visual mutations")
	}
}
