package heap

const tableMaxLoad = 0.75

// entry is one slot of an open-addressed hash table. A nil Key with a
// Bool(true) Value marks a tombstone left behind by Delete, which must
// keep probe sequences intact for keys that hashed past it.
type entry struct {
	Key   *String
	Value Value
}

// Table is an open-addressed hash table with linear probing and
// tombstone deletion, per spec.md §4.5. It serves double duty as both
// the VM's global-variable table and the heap's string-intern table.
type Table struct {
	entries []entry
	count   int // live entries + tombstones, used against tableMaxLoad
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.Key != nil {
			n++
		}
	}
	return n
}

// Get reports the value stored under key, if any.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.find(key)
	if e == nil || e.Key == nil {
		return Value{}, false
	}
	return e.Value, true
}

// Set stores value under key, growing the table first if needed to
// keep the load factor under tableMaxLoad. Reports whether key is new.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := e.Key == nil
	if isNew && e.Value.IsNil() {
		// fresh slot, not a reused tombstone
		t.count++
	}
	e.Key = key
	e.Value = value
	return isNew
}

// Delete removes key, leaving a tombstone so later probes skip over it.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e == nil || e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = Bool(true) // tombstone marker
	return true
}

// FindString looks up an interned string by content without allocating
// a *String first, so the allocator can reuse an existing object
// instead of creating a duplicate.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil // non-tombstone empty slot: not found
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) & mask
	}
}

// find locates the slot key occupies, or the first free/tombstone slot
// on its probe sequence if absent.
func (t *Table) find(key *String) *entry {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key || (e.Key.Hash == key.Hash && e.Key.Chars == key.Chars) {
			return e
		}
		index = (index + 1) & mask
	}
}

// grow doubles capacity (starting from 8) and rehashes every live entry,
// dropping tombstones in the process.
func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.Key == nil {
			continue
		}
		dst := t.find(e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		t.count++
	}
}

// removeWhite deletes every entry whose key string is unmarked,
// implementing the intern table's weak-reference sweep (spec.md §4.5):
// a string that survived no other root dies with the GC cycle that
// finds it unreferenced.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.Marked {
			e.Key = nil
			e.Value = Bool(true)
		}
	}
}

// ForEach calls fn for every live (non-tombstone) entry.
func (t *Table) ForEach(fn func(key *String, value Value)) {
	for _, e := range t.entries {
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

// markTableRoots marks every key and value in t, used by blacken for a
// class's method table and an instance's field table (strong references,
// unlike the intern table which is swept as weak references).
func (t *Table) markTableRoots(h *Heap) {
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		h.MarkObject(e.Key)
		h.MarkValue(e.Value)
	}
}
