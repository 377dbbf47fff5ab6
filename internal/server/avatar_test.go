package server

import "testing"

func TestAvatarPoolAssignsDistinct(t *testing.T) {
	pool := newAvatarPool(nil)

	seen := make(map[string]bool)
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		avatar := pool.Assign(id, "")
		if avatar == "" {
			t.Fatalf("pool exhausted after %d assignments", i)
		}
		if seen[avatar] {
			t.Fatalf("avatar %q assigned twice", avatar)
		}
		seen[avatar] = true
	}
}

func TestAvatarPoolExhaustion(t *testing.T) {
	pool := newAvatarPool([]string{"🦊", "🐼"})
	pool.Assign("a", "")
	pool.Assign("b", "")

	if got := pool.Assign("c", ""); got != "" {
		t.Errorf("expected empty avatar from exhausted pool, got %q", got)
	}
}

func TestAvatarPoolHonorsFreeRequest(t *testing.T) {
	pool := newAvatarPool(nil)

	if got := pool.Assign("a", "🐙"); got != "🐙" {
		t.Errorf("free requested avatar not honored, got %q", got)
	}
	if got := pool.Assign("b", "🐙"); got == "🐙" {
		t.Error("held avatar handed out twice")
	}
}

func TestAvatarPoolReleaseReturnsSlot(t *testing.T) {
	pool := newAvatarPool([]string{"🦊"})
	if got := pool.Assign("a", ""); got != "🦊" {
		t.Fatalf("expected 🦊, got %q", got)
	}

	pool.Release("a")

	if got := pool.Assign("b", ""); got != "🦊" {
		t.Errorf("released avatar not reusable, got %q", got)
	}
}
