// Package index keeps per-craft buckets of entities keyed by kind, with a
// global item to craft cross-reference.
package index

import "github.com/mlange-42/ark/ecs"

type slot[K comparable] struct {
	craft ecs.Entity
	kind  K
	pos   int
}

// ByKind indexes items (routines, strategies, weapons) under their owning
// craft and a kind. Insert and Remove are O(1); buckets that become empty are
// pruned so a craft with no items has no entry at all.
//
// ByKind is not safe for concurrent mutation. It is only written between
// pipeline stages.
type ByKind[K comparable] struct {
	crafts map[ecs.Entity]map[K][]ecs.Entity
	slots  map[ecs.Entity]slot[K]
}

// New creates an empty index.
func New[K comparable]() *ByKind[K] {
	return &ByKind[K]{
		crafts: make(map[ecs.Entity]map[K][]ecs.Entity),
		slots:  make(map[ecs.Entity]slot[K]),
	}
}

// Insert files item under craft and kind. Reinserting an indexed item moves it.
func (x *ByKind[K]) Insert(craft, item ecs.Entity, kind K) {
	if _, ok := x.slots[item]; ok {
		x.Remove(item)
	}
	kinds, ok := x.crafts[craft]
	if !ok {
		kinds = make(map[K][]ecs.Entity)
		x.crafts[craft] = kinds
	}
	bucket := kinds[kind]
	x.slots[item] = slot[K]{craft: craft, kind: kind, pos: len(bucket)}
	kinds[kind] = append(bucket, item)
}

// Remove drops item from the index and reports whether it was present.
// When the item's craft was already removed only the cross reference goes.
func (x *ByKind[K]) Remove(item ecs.Entity) bool {
	s, ok := x.slots[item]
	if !ok {
		return false
	}
	delete(x.slots, item)

	kinds, ok := x.crafts[s.craft]
	if !ok {
		return true
	}
	bucket := kinds[s.kind]
	if s.pos >= len(bucket) || bucket[s.pos] != item {
		return true
	}

	last := len(bucket) - 1
	if s.pos != last {
		moved := bucket[last]
		bucket[s.pos] = moved
		ms := x.slots[moved]
		ms.pos = s.pos
		x.slots[moved] = ms
	}
	bucket[last] = ecs.Entity{}
	bucket = bucket[:last]

	if len(bucket) == 0 {
		delete(kinds, s.kind)
		if len(kinds) == 0 {
			delete(x.crafts, s.craft)
		}
		return true
	}
	kinds[s.kind] = bucket
	return true
}

// Lookup returns the items of one kind under craft. The slice is owned by the
// index and is only valid until the next mutation.
func (x *ByKind[K]) Lookup(craft ecs.Entity, kind K) []ecs.Entity {
	return x.crafts[craft][kind]
}

// First returns the first item of kind under craft.
func (x *ByKind[K]) First(craft ecs.Entity, kind K) (ecs.Entity, bool) {
	b := x.crafts[craft][kind]
	if len(b) == 0 {
		return ecs.Entity{}, false
	}
	return b[0], true
}

// Items appends every item indexed under craft to dst.
func (x *ByKind[K]) Items(craft ecs.Entity, dst []ecs.Entity) []ecs.Entity {
	for _, b := range x.crafts[craft] {
		dst = append(dst, b...)
	}
	return dst
}

// Owner returns the craft and kind item is filed under.
func (x *ByKind[K]) Owner(item ecs.Entity) (ecs.Entity, K, bool) {
	s, ok := x.slots[item]
	return s.craft, s.kind, ok
}

// Contains reports whether item is indexed.
func (x *ByKind[K]) Contains(item ecs.Entity) bool {
	_, ok := x.slots[item]
	return ok
}

// RemoveCraft drops every item of craft and returns them.
func (x *ByKind[K]) RemoveCraft(craft ecs.Entity) []ecs.Entity {
	kinds, ok := x.crafts[craft]
	if !ok {
		return nil
	}
	var out []ecs.Entity
	for _, b := range kinds {
		for _, item := range b {
			delete(x.slots, item)
			out = append(out, item)
		}
	}
	delete(x.crafts, craft)
	return out
}

// Len returns the number of indexed items.
func (x *ByKind[K]) Len() int { return len(x.slots) }

// Crafts returns the number of crafts with at least one item.
func (x *ByKind[K]) Crafts() int { return len(x.crafts) }
