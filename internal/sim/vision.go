package sim

import "math"

// angleEpsilon absorbs atan2 rounding so a target exactly on the FOV edge is seen.
const angleEpsilon = 1e-9

// Vision holds the perception parameters of an observer.
type Vision struct {
	FOV      float64 // radians, total arc width
	Range    float64 // world units
	Step     float64 // LOS ray-march step
	WideStep float64 // body-width sweep step
}

// DefaultVision returns a 60 degree cone reaching 200 units.
func DefaultVision() Vision {
	return Vision{
		FOV:      60 * math.Pi / 180,
		Range:    200,
		Step:     5,
		WideStep: 20,
	}
}

// InCone reports whether target lies within range and within FOV/2 of heading.
func (v Vision) InCone(observer Vec2, heading float64, target Vec2) bool {
	if observer.DistanceTo(target) > v.Range {
		return false
	}
	diff := wrapAngle(HeadingTo(observer, target) - heading)
	return math.Abs(diff) <= v.FOV/2+angleEpsilon
}

// Cone describes a vision cone for overlay drawing.
type Cone struct {
	Apex    Vec2
	Heading float64
	FOV     float64
	Length  float64
}

// Edges returns the end points of the two bounding rays.
func (c Cone) Edges() (left, right Vec2) {
	half := c.FOV / 2
	left = c.Apex.Add(Vec2{math.Cos(c.Heading - half), math.Sin(c.Heading - half)}.Scale(c.Length))
	right = c.Apex.Add(Vec2{math.Cos(c.Heading + half), math.Sin(c.Heading + half)}.Scale(c.Length))
	return left, right
}

// Sensor answers visibility queries against a grid.
type Sensor struct {
	grid     *Grid
	collider *Collider
	vision   Vision
}

// NewSensor returns a sensor using v for cone tests and col for body sweeps.
func NewSensor(g *Grid, col *Collider, v Vision) *Sensor {
	return &Sensor{grid: g, collider: col, vision: v}
}

// Vision returns the sensor's current parameters.
func (s *Sensor) Vision() Vision { return s.vision }

// CanSee reports whether an observer at observer facing heading can see target:
// within range, inside the cone, and with a clear line of sight.
func (s *Sensor) CanSee(observer Vec2, heading float64, target Vec2) bool {
	return s.vision.InCone(observer, heading, target) && s.LineClear(observer, target)
}

// LineClear ray-marches from a to b and fails on the first wall cell sampled.
func (s *Sensor) LineClear(a, b Vec2) bool {
	steps := marchSteps(a.DistanceTo(b), s.vision.Step)
	for i := 0; i <= steps; i++ {
		if s.grid.IsWall(s.grid.WorldToCell(a.Lerp(b, float64(i)/float64(steps)))) {
			return false
		}
	}
	return true
}

// WideLineClear sweeps a full entity box from a to b at coarse steps, so a
// clear result means the body fits along the line, not just its centre.
func (s *Sensor) WideLineClear(a, b Vec2) bool {
	steps := marchSteps(a.DistanceTo(b), s.vision.WideStep)
	for i := 0; i <= steps; i++ {
		if s.collider.Collides(a.Lerp(b, float64(i)/float64(steps))) {
			return false
		}
	}
	return true
}

func marchSteps(dist, step float64) int {
	if step <= 0 {
		return 1
	}
	return max(1, int(dist/step))
}
