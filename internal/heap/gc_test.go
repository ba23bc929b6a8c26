package heap

import "testing"

type fakeRoots struct {
	values []Value
}

func (f *fakeRoots) MarkRoots(h *Heap) {
	for _, v := range f.values {
		h.MarkValue(v)
	}
}

func countLive(h *Heap) int {
	n := 0
	for o := h.objects; o != nil; o = o.Hdr().Next {
		n++
	}
	return n
}

func TestStringInterningReturnsSameObject(t *testing.T) {
	h := NewHeap(1<<20, 2, false)
	a := h.NewString("same")
	b := h.NewString("same")
	if a != b {
		t.Fatalf("expected interned strings to be the same object")
	}
	c := h.NewString("different")
	if a == c {
		t.Fatalf("expected distinct content to intern to distinct objects")
	}
}

func TestCollectFreesUnreachableObjects(t *testing.T) {
	h := NewHeap(1<<20, 2, false)
	roots := &fakeRoots{}
	h.RegisterRoot(roots)

	kept := h.NewString("kept")
	roots.values = append(roots.values, FromObject(kept))

	h.NewString("garbage-1")
	h.NewString("garbage-2")

	before := countLive(h)
	if before < 3 {
		t.Fatalf("expected at least 3 live objects before collection, got %d", before)
	}

	h.Collect()

	after := countLive(h)
	if after != 1 {
		t.Fatalf("expected exactly 1 surviving object after collection, got %d", after)
	}

	if _, ok := FromObject(kept).AsString(); !ok {
		t.Fatalf("expected the rooted string to survive collection")
	}
}

func TestInternTableWeakSweepDropsDeadStrings(t *testing.T) {
	h := NewHeap(1<<20, 2, false)
	h.NewString("transient")

	if h.strings.FindString("transient", hashString("transient")) == nil {
		t.Fatalf("expected string to be present in the intern table before collection")
	}

	h.Collect()

	if h.strings.FindString("transient", hashString("transient")) != nil {
		t.Fatalf("expected unreferenced interned string to be swept from the intern table")
	}
}

func TestCollectGrowsNextGCByFactor(t *testing.T) {
	h := NewHeap(64, 2, false)
	h.RegisterRoot(&fakeRoots{})
	h.NewString("x")
	h.Collect()
	if h.nextGC != h.bytesAllocated*2 {
		t.Fatalf("expected nextGC to be bytesAllocated*growFactor, got nextGC=%d bytesAllocated=%d", h.nextGC, h.bytesAllocated)
	}
}
