// Package systems provides ECS systems for the simulation.
package systems

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

type cellKey struct {
	x, y, z int32
}

// maxQueryCells bounds the cells a box query walks before it gives up and
// reports every item instead.
const maxQueryCells = 4096

// SpatialGrid is an unbounded hashed 3D grid of item indices. Spheres are
// filed in every cell their bounding box touches.
//
// Inserts and Clear are single-threaded; queries are safe for concurrent
// readers once the grid is built.
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]int32
	count    int32
}

// NewSpatialGrid creates an empty grid with the given cell edge length.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int32),
	}
}

// Clear empties the grid, keeping cell storage for reuse.
func (g *SpatialGrid) Clear() {
	for k, v := range g.cells {
		if len(v) == 0 {
			// Drop cells that stayed empty for a whole tick.
			delete(g.cells, k)
			continue
		}
		g.cells[k] = v[:0]
	}
	g.count = 0
}

func (g *SpatialGrid) key(v r3.Vec) cellKey {
	return cellKey{
		x: int32(math.Floor(v.X / g.cellSize)),
		y: int32(math.Floor(v.Y / g.cellSize)),
		z: int32(math.Floor(v.Z / g.cellSize)),
	}
}

// Insert files item idx as a sphere.
func (g *SpatialGrid) Insert(idx int32, center r3.Vec, radius float64) {
	ext := r3.Vec{X: radius, Y: radius, Z: radius}
	lo, hi := g.key(r3.Sub(center, ext)), g.key(r3.Add(center, ext))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				k := cellKey{x, y, z}
				g.cells[k] = append(g.cells[k], idx)
			}
		}
	}
	if idx >= g.count {
		g.count = idx + 1
	}
}

// QueryBox appends the items filed in cells overlapping [min, max] to dst,
// each once, in ascending order. all is true when the box was too large and
// dst holds every item.
func (g *SpatialGrid) QueryBox(dst []int32, min, max r3.Vec) (out []int32, all bool) {
	lo, hi := g.key(min), g.key(max)
	n := int64(hi.x-lo.x+1) * int64(hi.y-lo.y+1) * int64(hi.z-lo.z+1)
	if n > maxQueryCells || n > int64(len(g.cells))*8 {
		for i := int32(0); i < g.count; i++ {
			dst = append(dst, i)
		}
		return dst, true
	}

	start := len(dst)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				dst = append(dst, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	tail := dst[start:]
	slices.Sort(tail)
	tail = slices.Compact(tail)
	return dst[:start+len(tail)], false
}

// QuerySphere is QueryBox over the bounding box of a sphere.
func (g *SpatialGrid) QuerySphere(dst []int32, center r3.Vec, radius float64) []int32 {
	ext := r3.Vec{X: radius, Y: radius, Z: radius}
	dst, _ = g.QueryBox(dst, r3.Sub(center, ext), r3.Add(center, ext))
	return dst
}
