package cache

import (
	"testing"
	"time"
)

func TestGraphCacheSaveThenLoad(t *testing.T) {
	gc := NewGraphCache(t.TempDir(), time.Hour)
	sig := "a.java:100|b.java:200"
	graph := map[string][]string{
		"com.example.Foo": {"com/example/FooController.java", "com/example/FooService.java"},
		"com.example.Bar": nil,
	}

	if err := gc.Save(sig, graph); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := gc.Load(sig)
	if !ok {
		t.Fatal("expected hit after save")
	}
	if len(got["com.example.Foo"]) != 2 {
		t.Errorf("Foo deps = %v, want 2 entries", got["com.example.Foo"])
	}
}

func TestGraphCacheMissOnSignatureMismatch(t *testing.T) {
	gc := NewGraphCache(t.TempDir(), time.Hour)
	gc.Save("sig-a", map[string][]string{"com.example.Foo": {"x.java"}})

	if _, ok := gc.Load("sig-b"); ok {
		t.Fatal("expected miss on signature mismatch")
	}
}

func TestGraphCacheMissWhenAbsent(t *testing.T) {
	gc := NewGraphCache(t.TempDir(), time.Hour)
	if _, ok := gc.Load("anything"); ok {
		t.Fatal("expected miss when cache file does not exist")
	}
}

func TestGraphCacheTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	gc := NewGraphCache(dir, time.Hour)
	sig := "sig"
	gc.Save(sig, map[string][]string{"com.example.Foo": {"x.java"}})

	// Re-open with a TTL so small the just-written entry is already stale.
	expired := NewGraphCache(dir, -time.Second)
	if _, ok := expired.Load(sig); ok {
		t.Fatal("expected miss once TTL has elapsed")
	}
}

func TestGraphCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	gc := NewGraphCache(dir, time.Hour)
	sig := "sig"
	gc.Save(sig, map[string][]string{"com.example.Foo": {"x.java"}})

	if err := gc.Invalidate(); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := gc.Load(sig); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestSignatureDeterministicAcrossMapOrder(t *testing.T) {
	now := time.Now()
	a := Signature(map[string]time.Time{"b.java": now, "a.java": now})
	b := Signature(map[string]time.Time{"a.java": now, "b.java": now})
	if a != b {
		t.Errorf("Signature not order-independent: %q vs %q", a, b)
	}
}
