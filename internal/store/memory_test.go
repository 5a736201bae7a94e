package store

import (
	"context"
	"sort"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Get(ctx, "cart:at-once"); err != nil || ok {
		t.Fatalf("missing key should report not found, ok=%v err=%v", ok, err)
	}

	payload := []byte(`[{"product_id":"P1"}]`)
	if err := s.Set(ctx, "cart:at-once", payload); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	payload[0] = 'x'

	got, ok, err := s.Get(ctx, "cart:at-once")
	if err != nil || !ok {
		t.Fatalf("get failed, ok=%v err=%v", ok, err)
	}
	if string(got) != `[{"product_id":"P1"}]` {
		t.Fatalf("stored value should be copied, got %s", got)
	}

	if err := s.Delete(ctx, "cart:at-once"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "cart:at-once"); ok {
		t.Fatalf("key should be gone after delete")
	}
}

func TestPrefixedStoreIsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	a := Prefixed(inner, "company:1")
	b := Prefixed(inner, " company:2: ")

	if err := a.Set(ctx, "cart:prebook", []byte("[1]")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := b.Set(ctx, "cart:prebook", []byte("[2]")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	keys := inner.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "company:1:cart:prebook" || keys[1] != "company:2:cart:prebook" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	got, _, _ := a.Get(ctx, "cart:prebook")
	if string(got) != "[1]" {
		t.Fatalf("namespace a want [1] got %s", got)
	}
	if err := b.Delete(ctx, "cart:prebook"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := a.Get(ctx, "cart:prebook"); !ok {
		t.Fatalf("deleting in one namespace must not affect another")
	}
}

func TestPrefixedEmptyPrefixReturnsInner(t *testing.T) {
	inner := NewMemoryStore()
	if got := Prefixed(inner, "  "); got != Store(inner) {
		t.Fatalf("empty prefix should return the inner store")
	}
}
