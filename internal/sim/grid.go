package sim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrGridTooSmall is returned for grids without at least one interior cell.
	ErrGridTooSmall = errors.New("sim: grid must be at least 3x3")
	// ErrBadLayout is returned for malformed layouts or wall cells outside the grid.
	ErrBadLayout = errors.New("sim: bad layout")
)

// Cell addresses one tile by column and row.
type Cell struct {
	X, Y int
}

// Grid is a static occupancy map. Border cells are always walls and the
// layout never changes after construction.
type Grid struct {
	cols  int
	rows  int
	tile  float64
	walls []bool
	free  int
}

// NewGrid builds a cols x rows grid with tile edge length tile. Border cells
// are walls; interior lists any additional wall cells.
func NewGrid(cols, rows int, tile float64, interior []Cell) (*Grid, error) {
	if cols < 3 || rows < 3 {
		return nil, ErrGridTooSmall
	}
	if tile <= 0 {
		return nil, fmt.Errorf("%w: tile size %.2f", ErrBadLayout, tile)
	}
	g := &Grid{
		cols:  cols,
		rows:  rows,
		tile:  tile,
		walls: make([]bool, cols*rows),
	}
	for x := 0; x < cols; x++ {
		g.walls[x] = true
		g.walls[(rows-1)*cols+x] = true
	}
	for y := 0; y < rows; y++ {
		g.walls[y*cols] = true
		g.walls[y*cols+cols-1] = true
	}
	for _, c := range interior {
		if !g.inBounds(c) {
			return nil, fmt.Errorf("%w: wall cell (%d,%d) outside %dx%d grid", ErrBadLayout, c.X, c.Y, cols, rows)
		}
		g.walls[c.Y*cols+c.X] = true
	}
	for _, w := range g.walls {
		if !w {
			g.free++
		}
	}
	return g, nil
}

// ParseLayout builds a grid from rows of '#' (wall) and '.' (free) characters.
// Border walls are forced regardless of what the rows say.
func ParseLayout(rows []string, tile float64) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrGridTooSmall
	}
	cols := len(rows[0])
	var walls []Cell
	for y, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrBadLayout, y, len(row), cols)
		}
		for x, ch := range row {
			switch ch {
			case '#':
				walls = append(walls, Cell{x, y})
			case '.':
			default:
				return nil, fmt.Errorf("%w: unexpected %q at (%d,%d)", ErrBadLayout, ch, x, y)
			}
		}
	}
	return NewGrid(cols, len(rows), tile, walls)
}

// DefaultBarrier returns the interior barrier row: row rows/2, spanning the
// middle half of the columns. On a 20x15 grid that is row 7, columns 5-14.
func DefaultBarrier(cols, rows int) []Cell {
	y := rows / 2
	var cells []Cell
	for x := cols / 4; x < cols-cols/4; x++ {
		cells = append(cells, Cell{x, y})
	}
	return cells
}

func (g *Grid) Cols() int { return g.cols }

func (g *Grid) Rows() int { return g.rows }

func (g *Grid) TileSize() float64 { return g.tile }

// FreeCells returns the number of non-wall cells.
func (g *Grid) FreeCells() int { return g.free }

func (g *Grid) inBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.cols && c.Y < g.rows
}

// WorldSize returns the grid extent in world units.
func (g *Grid) WorldSize() Vec2 {
	return Vec2{float64(g.cols) * g.tile, float64(g.rows) * g.tile}
}

// IsWall reports whether c is a wall. Out-of-bounds cells count as walls.
func (g *Grid) IsWall(c Cell) bool {
	if !g.inBounds(c) {
		return true
	}
	return g.walls[c.Y*g.cols+c.X]
}

// WorldToCell returns the cell containing world point p.
func (g *Grid) WorldToCell(p Vec2) Cell {
	return Cell{int(math.Floor(p.X / g.tile)), int(math.Floor(p.Y / g.tile))}
}

// CellCenter returns the world-space centre of c.
func (g *Grid) CellCenter(c Cell) Vec2 {
	return Vec2{
		float64(c.X)*g.tile + g.tile/2,
		float64(c.Y)*g.tile + g.tile/2,
	}
}

// CellRect returns the world-space bounds of c.
func (g *Grid) CellRect(c Cell) Box {
	x, y := float64(c.X)*g.tile, float64(c.Y)*g.tile
	return Box{MinX: x, MinY: y, MaxX: x + g.tile, MaxY: y + g.tile}
}
