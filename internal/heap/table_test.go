package heap

import "testing"

func TestTableSetGetDelete(t *testing.T) {
	tbl := NewTable()
	key := &String{Chars: "greeting", Hash: hashString("greeting")}

	if _, ok := tbl.Get(key); ok {
		t.Fatalf("expected missing key to report not found")
	}

	isNew := tbl.Set(key, Number(1))
	if !isNew {
		t.Fatalf("expected first Set to report a new key")
	}

	v, ok := tbl.Get(key)
	if !ok || v.AsNumber() != 1 {
		t.Fatalf("expected Get to return the stored value, got %v ok=%v", v, ok)
	}

	if isNew := tbl.Set(key, Number(2)); isNew {
		t.Fatalf("expected overwrite of existing key to report isNew=false")
	}
	v, _ = tbl.Get(key)
	if v.AsNumber() != 2 {
		t.Fatalf("expected overwritten value 2, got %v", v.AsNumber())
	}

	if !tbl.Delete(key) {
		t.Fatalf("expected Delete to succeed on a present key")
	}
	if _, ok := tbl.Get(key); ok {
		t.Fatalf("expected key to be gone after Delete")
	}
}

func TestTableTombstoneDoesNotBreakProbing(t *testing.T) {
	tbl := NewTable()
	keys := make([]*String, 0, 20)
	for i := 0; i < 20; i++ {
		s := string(rune('a' + i))
		k := &String{Chars: s, Hash: hashString(s)}
		keys = append(keys, k)
		tbl.Set(k, Number(float64(i)))
	}

	// delete every other key, leaving tombstones along probe chains
	for i := 0; i < len(keys); i += 2 {
		tbl.Delete(keys[i])
	}

	for i := 1; i < len(keys); i += 2 {
		v, ok := tbl.Get(keys[i])
		if !ok || v.AsNumber() != float64(i) {
			t.Fatalf("expected surviving key %d to resolve to %d, got %v ok=%v", i, i, v, ok)
		}
	}
}

func TestTableFindStringInterns(t *testing.T) {
	tbl := NewTable()
	s := &String{Chars: "hello", Hash: hashString("hello")}
	tbl.Set(s, Nil())

	found := tbl.FindString("hello", hashString("hello"))
	if found != s {
		t.Fatalf("expected FindString to return the same *String instance")
	}
	if tbl.FindString("nope", hashString("nope")) != nil {
		t.Fatalf("expected FindString to report nil for an absent string")
	}
}
