package sim

import "math"

// Box is an axis-aligned rectangle in world space.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// BoxAround returns a size x size box centred on c.
func BoxAround(c Vec2, size float64) Box {
	h := size / 2
	return Box{MinX: c.X - h, MinY: c.Y - h, MaxX: c.X + h, MaxY: c.Y + h}
}

// Overlaps reports whether b and o share interior area. Touching edges do not overlap.
func (b Box) Overlaps(o Box) bool {
	return b.MinX < o.MaxX && b.MaxX > o.MinX && b.MinY < o.MaxY && b.MaxY > o.MinY
}

// Collider tests entity boxes against the walls of a grid.
type Collider struct {
	grid *Grid
	size float64
}

// NewCollider returns a collider for square entities with edge length size.
func NewCollider(g *Grid, size float64) *Collider {
	return &Collider{grid: g, size: size}
}

// EntitySize returns the edge length of the entity box.
func (c *Collider) EntitySize() float64 { return c.size }

// Collides reports whether an entity centred at center overlaps any wall in
// the 3x3 neighbourhood of its cell. The neighbourhood is clamped to the grid.
func (c *Collider) Collides(center Vec2) bool {
	box := BoxAround(center, c.size)
	cell := c.grid.WorldToCell(center)
	y0, y1 := max(0, cell.Y-1), min(c.grid.rows-1, cell.Y+1)
	x0, x1 := max(0, cell.X-1), min(c.grid.cols-1, cell.X+1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			n := Cell{x, y}
			if c.grid.IsWall(n) && box.Overlaps(c.grid.CellRect(n)) {
				return true
			}
		}
	}
	// Centres outside the grid are always blocked.
	return !c.grid.inBounds(cell)
}

// TryMove steps speed units along heading from pos. A blocked step leaves the
// position unchanged and reports false.
func (c *Collider) TryMove(pos Vec2, heading, speed float64) (Vec2, bool) {
	next := pos.Add(Vec2{math.Cos(heading), math.Sin(heading)}.Scale(speed))
	if c.Collides(next) {
		return pos, false
	}
	return next, true
}
