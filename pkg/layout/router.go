package layout

import (
	"math"

	"github.com/flowviz/flowviz/pkg/topology"
)

const (
	// minControl and maxControl bound the control-point distance so short
	// edges still curve and long edges do not balloon.
	minControl = 40.0
	maxControl = 150.0

	// backwardThreshold is how far left of its source a target must sit
	// before a right-to-left connection switches to the wide clearing loop.
	backwardThreshold = 30.0

	// parallelSpread is the extra control distance per parallel edge index.
	parallelSpread = 18.0
)

// Route computes the cubic path for one edge. Control points extend outward
// from each endpoint along its side's unit vector for a distance of half
// the straight-line separation, clamped to [minControl, maxControl].
//
// When the edge leaves a right side for a left side but the target actually
// lies to the left of the source by more than backwardThreshold, the control
// distance is driven by the vertical separation instead, so the curve loops
// wide around whatever sits between the endpoints.
//
// Parallel edges between the same ordered node pair pass increasing offset
// indexes; each index adds parallelSpread to the control distance after
// clamping, keeping the curves visually distinct.
//
// Route is pure: equal arguments always produce equal paths.
func Route(from, to Point, offset int, fromSide, toSide topology.Side) Path {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dist := math.Hypot(dx, dy)

	d := clamp(dist/2, minControl, maxControl)
	if fromSide == topology.SideRight && toSide == topology.SideLeft && to.X < from.X-backwardThreshold {
		d = clamp(60+math.Abs(dy)/2, minControl, maxControl)
	}
	d += float64(offset) * parallelSpread

	fv := sideVector(fromSide)
	tv := sideVector(toSide)
	return Path{
		Start: from,
		C1:    Point{X: from.X + fv.X*d, Y: from.Y + fv.Y*d},
		C2:    Point{X: to.X + tv.X*d, Y: to.Y + tv.Y*d},
		End:   to,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
