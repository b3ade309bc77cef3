package steering

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boidmind/geom"
)

func TestPursue(t *testing.T) {
	e := newEntities(1)[0]
	c := testCraft(e, r3.Vec{}, r3.Vec{})
	p := PursuitParams{
		Range:     100,
		PursueCos: math.Cos(math.Pi / 4),
		FireCos:   math.Cos(5 * math.Pi / 180),
	}

	tests := []struct {
		name      string
		quarry    r3.Vec
		found     bool
		wantPhase PursuitPhase
		wantFire  bool
	}{
		{"gone", r3.Vec{}, false, PursuitLost, false},
		{"out of range", r3.Vec{Z: -500}, true, PursuitClosing, false},
		{"dead ahead", r3.Vec{Z: -50}, true, PursuitEngaging, true},
		// 30 degrees off the nose: inside the pursuit cone, outside the fire cone.
		{"off boresight", r3.Vec{X: 50 * math.Sin(math.Pi/6), Z: -50 * math.Cos(math.Pi/6)}, true, PursuitEngaging, false},
		{"beside", r3.Vec{X: 50}, true, PursuitManeuvering, false},
		{"behind", r3.Vec{Z: 50}, true, PursuitManeuvering, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase, fire := Pursue(c, Body{Position: tt.quarry}, tt.found, p)
			if phase != tt.wantPhase || fire != tt.wantFire {
				t.Errorf("Pursue = %v/%v, want %v/%v", phase, fire, tt.wantPhase, tt.wantFire)
			}
		})
	}
}

func TestSlotOffsetsDistinct(t *testing.T) {
	for _, p := range []FormationPattern{PatternSphere, PatternLine, PatternWedge, PatternColumn} {
		t.Run(p.String(), func(t *testing.T) {
			const n = 7
			seen := make([]r3.Vec, 0, n)
			for i := 0; i < n; i++ {
				off := SlotOffset(p, i, n, 20, 10)
				for j, prev := range seen {
					if vecNear(off, prev, 1e-6) {
						t.Fatalf("slot %d overlaps slot %d at %v", i, j, off)
					}
				}
				seen = append(seen, off)
			}
		})
	}
}

func TestSlotPositionFollowsPivot(t *testing.T) {
	pivot := r3.Vec{X: 100, Y: 5}
	rot := geom.FromAxisAngle(geom.Up, math.Pi/2)

	got := SlotPosition(PatternColumn, 2, 3, 0, 10, pivot, rot)
	// Column slots trail behind the pivot; yawed left, behind is +X.
	want := r3.Vec{X: 120, Y: 5}
	if !vecNear(got, want, 1e-9) {
		t.Errorf("SlotPosition = %v, want %v", got, want)
	}

	sphere := SlotPosition(PatternSphere, 3, 8, 25, 0, pivot, geom.Identity)
	if d := r3.Norm(r3.Sub(sphere, pivot)); math.Abs(d-25) > 1e-9 {
		t.Errorf("sphere slot distance = %v, want 25", d)
	}
}

func TestParsePattern(t *testing.T) {
	for _, name := range []string{"sphere", "line", "wedge", "column"} {
		p, err := ParsePattern(name)
		if err != nil || p.String() != name {
			t.Errorf("ParsePattern(%q) = %v, %v", name, p, err)
		}
	}
	if _, err := ParsePattern("blob"); err == nil {
		t.Error("ParsePattern(blob) should fail")
	}
}
