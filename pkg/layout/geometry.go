package layout

import "github.com/flowviz/flowviz/pkg/topology"

// Point is a position in world coordinates. Y grows downward, matching the
// screen-space convention of every renderer in the repository.
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Path is a cubic Bezier curve from Start to End with control points C1
// (near Start) and C2 (near End).
type Path struct {
	Start Point `json:"start" yaml:"start" bson:"start"`
	C1    Point `json:"c1" yaml:"c1" bson:"c1"`
	C2    Point `json:"c2" yaml:"c2" bson:"c2"`
	End   Point `json:"end" yaml:"end" bson:"end"`
}

// At evaluates the curve at t in [0,1]. This is the single interpolation the
// simulator uses to position traveling particles.
func (p Path) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p.Start.X + b*p.C1.X + c*p.C2.X + d*p.End.X,
		Y: a*p.Start.Y + b*p.C1.Y + c*p.C2.Y + d*p.End.Y,
	}
}

// sideVector returns the outward unit vector for a connection side.
func sideVector(side topology.Side) Point {
	switch side {
	case topology.SideTop:
		return Point{X: 0, Y: -1}
	case topology.SideBottom:
		return Point{X: 0, Y: 1}
	case topology.SideLeft:
		return Point{X: -1, Y: 0}
	default:
		return Point{X: 1, Y: 0}
	}
}
