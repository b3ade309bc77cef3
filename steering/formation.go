package steering

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

// FormationPattern lays out slots around a formation pivot.
type FormationPattern uint8

const (
	PatternSphere FormationPattern = iota
	PatternLine
	PatternWedge
	PatternColumn
)

func (p FormationPattern) String() string {
	switch p {
	case PatternSphere:
		return "sphere"
	case PatternLine:
		return "line"
	case PatternWedge:
		return "wedge"
	case PatternColumn:
		return "column"
	}
	return fmt.Sprintf("pattern(%d)", p)
}

// ParsePattern maps a pattern name to its value.
func ParsePattern(s string) (FormationPattern, error) {
	switch s {
	case "sphere", "":
		return PatternSphere, nil
	case "line":
		return PatternLine, nil
	case "wedge":
		return PatternWedge, nil
	case "column":
		return PatternColumn, nil
	}
	return 0, fmt.Errorf("unknown formation pattern %q", s)
}

// SlotOffset is the pivot-local offset of slot i out of n. It depends only on
// the pattern, i and n, so every member computes the same layout.
func SlotOffset(p FormationPattern, i, n int, radius, spacing float64) r3.Vec {
	switch p {
	case PatternLine:
		return r3.Vec{X: (float64(i) - float64(n-1)/2) * spacing}
	case PatternWedge:
		// Slot 0 leads; pairs fan out behind it to alternating sides.
		row := float64((i + 1) / 2)
		side := 1.0
		if i%2 == 0 {
			side = -1
		}
		return r3.Vec{X: side * row * spacing, Z: row * spacing}
	case PatternColumn:
		return r3.Vec{Z: float64(i) * spacing}
	default:
		return r3.Scale(radius, geom.SphereSample(i, n))
	}
}

// SlotPosition places slot i in world space around a pivot.
func SlotPosition(p FormationPattern, i, n int, radius, spacing float64, pivot r3.Vec, rot quat.Number) r3.Vec {
	return r3.Add(pivot, geom.Rotate(rot, SlotOffset(p, i, n, radius, spacing)))
}
