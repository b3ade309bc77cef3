package index

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

type marker struct{}

func newEntities(n int) []ecs.Entity {
	w := ecs.NewWorld()
	m := ecs.NewMap[marker](w)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = m.NewEntity(&marker{})
	}
	return out
}

func TestInsertLookupRemove(t *testing.T) {
	es := newEntities(5)
	craft, a, b, c, other := es[0], es[1], es[2], es[3], es[4]

	x := New[int]()
	x.Insert(craft, a, 1)
	x.Insert(craft, b, 1)
	x.Insert(craft, c, 2)
	x.Insert(other, other, 2)

	if got := x.Lookup(craft, 1); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Lookup(craft, 1) = %v, want [%v %v]", got, a, b)
	}
	if owner, kind, ok := x.Owner(c); !ok || owner != craft || kind != 2 {
		t.Errorf("Owner(c) = %v, %v, %v; want %v, 2, true", owner, kind, ok, craft)
	}
	if x.Len() != 4 {
		t.Errorf("Len = %d, want 4", x.Len())
	}

	if !x.Remove(a) {
		t.Fatal("Remove(a) = false, want true")
	}
	if x.Remove(a) {
		t.Error("second Remove(a) = true, want false")
	}
	if got := x.Lookup(craft, 1); len(got) != 1 || got[0] != b {
		t.Errorf("after remove Lookup = %v, want [%v]", got, b)
	}

	x.Remove(b)
	if got := x.Lookup(craft, 1); len(got) != 0 {
		t.Errorf("empty bucket Lookup = %v, want none", got)
	}
	x.Remove(c)
	if x.Crafts() != 1 {
		t.Errorf("Crafts = %d, want 1 after pruning", x.Crafts())
	}
}

func TestReinsertMoves(t *testing.T) {
	es := newEntities(3)
	x := New[string]()
	x.Insert(es[0], es[2], "seek")
	x.Insert(es[1], es[2], "arrive")

	if got := x.Lookup(es[0], "seek"); len(got) != 0 {
		t.Errorf("old bucket = %v, want empty", got)
	}
	if owner, kind, _ := x.Owner(es[2]); owner != es[1] || kind != "arrive" {
		t.Errorf("Owner = %v/%v, want %v/arrive", owner, kind, es[1])
	}
	if x.Len() != 1 {
		t.Errorf("Len = %d, want 1", x.Len())
	}
}

func TestRemoveCraft(t *testing.T) {
	es := newEntities(4)
	craft := es[0]
	x := New[int]()
	x.Insert(craft, es[1], 0)
	x.Insert(craft, es[2], 1)
	x.Insert(es[3], es[3], 0)

	removed := x.RemoveCraft(craft)
	if len(removed) != 2 {
		t.Fatalf("RemoveCraft returned %v, want 2 items", removed)
	}
	if x.Contains(es[1]) || x.Contains(es[2]) {
		t.Error("removed items still indexed")
	}
	if x.Remove(es[1]) {
		t.Error("Remove after RemoveCraft should be a no-op")
	}
	if !x.Contains(es[3]) || x.Len() != 1 {
		t.Error("other craft's items should survive")
	}
	if x.RemoveCraft(craft) != nil {
		t.Error("second RemoveCraft should return nil")
	}
}

// TestRandomOperationsConsistent checks after every step that each indexed
// item appears exactly once, in the bucket its cross reference names.
func TestRandomOperationsConsistent(t *testing.T) {
	const nCrafts, nItems, nKinds = 4, 40, 3
	es := newEntities(nCrafts + nItems)
	crafts, items := es[:nCrafts], es[nCrafts:]
	rng := rand.New(rand.NewSource(1))

	x := New[int]()
	want := map[ecs.Entity]struct {
		craft ecs.Entity
		kind  int
	}{}

	for step := 0; step < 2000; step++ {
		item := items[rng.Intn(nItems)]
		switch op := rng.Intn(10); {
		case op < 6:
			craft := crafts[rng.Intn(nCrafts)]
			kind := rng.Intn(nKinds)
			x.Insert(craft, item, kind)
			want[item] = struct {
				craft ecs.Entity
				kind  int
			}{craft, kind}
		case op < 9:
			_, had := want[item]
			if got := x.Remove(item); got != had {
				t.Fatalf("step %d: Remove = %v, want %v", step, got, had)
			}
			delete(want, item)
		default:
			craft := crafts[rng.Intn(nCrafts)]
			for _, it := range x.RemoveCraft(craft) {
				delete(want, it)
			}
		}

		if x.Len() != len(want) {
			t.Fatalf("step %d: Len = %d, want %d", step, x.Len(), len(want))
		}
		seen := 0
		for _, craft := range crafts {
			for kind := 0; kind < nKinds; kind++ {
				for _, it := range x.Lookup(craft, kind) {
					w, ok := want[it]
					if !ok || w.craft != craft || w.kind != kind {
						t.Fatalf("step %d: %v found under %v/%d, want %+v (present=%v)", step, it, craft, kind, w, ok)
					}
					seen++
				}
			}
		}
		if seen != len(want) {
			t.Fatalf("step %d: buckets hold %d items, want %d", step, seen, len(want))
		}
	}
}
