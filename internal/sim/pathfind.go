package sim

import "container/heap"

// Path is an ordered list of world-space waypoints; the front is the next target.
type Path []Vec2

// --- A* pathfinding ---

type pathEntry struct {
	cell  Cell
	g     int
	f     int
	seq   int // insertion order, breaks f ties first-in-first-out
	index int // heap index
}

type openList []*pathEntry

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	if ol[i].f != ol[j].f {
		return ol[i].f < ol[j].f
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int) { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x any)   { e := x.(*pathEntry); e.index = len(*ol); *ol = append(*ol, e) }
func (ol *openList) Pop() any {
	old := *ol
	e := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return e
}

var dirs4 = [4]Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

func manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FindPath returns the cell-centre waypoints of a shortest 4-connected route
// from start to goal, excluding start. The result is empty when goal is
// unreachable or equal to start.
//
// Entries are never decreased in place; a relaxed cell is pushed again and the
// older entry is skipped when popped. The search stops the first time goal is
// popped.
func (g *Grid) FindPath(start, goal Cell) Path {
	if !g.inBounds(start) || !g.inBounds(goal) || start == goal {
		return nil
	}
	key := func(c Cell) int { return c.Y*g.cols + c.X }

	cost := make([]int, g.cols*g.rows)
	for i := range cost {
		cost[i] = -1
	}
	from := make([]int, g.cols*g.rows)
	seq := 0

	ol := &openList{}
	heap.Push(ol, &pathEntry{cell: start, g: 0, f: manhattan(start, goal), seq: seq})
	cost[key(start)] = 0
	from[key(start)] = -1

	found := false
	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathEntry)
		if cur.g > cost[key(cur.cell)] {
			continue // stale
		}
		if cur.cell == goal {
			found = true
			break
		}
		for _, d := range dirs4 {
			n := Cell{cur.cell.X + d.X, cur.cell.Y + d.Y}
			if g.IsWall(n) {
				continue
			}
			nk := key(n)
			tentative := cur.g + 1
			if cost[nk] >= 0 && tentative >= cost[nk] {
				continue
			}
			cost[nk] = tentative
			from[nk] = key(cur.cell)
			seq++
			heap.Push(ol, &pathEntry{cell: n, g: tentative, f: tentative + manhattan(n, goal), seq: seq})
		}
	}
	if !found {
		return nil
	}
	return g.buildPath(from, key(start), key(goal))
}

func (g *Grid) buildPath(from []int, start, goal int) Path {
	var keys []int
	for k := goal; k != start; k = from[k] {
		keys = append(keys, k)
	}
	path := make(Path, len(keys))
	for i, k := range keys {
		path[len(keys)-1-i] = g.CellCenter(Cell{k % g.cols, k / g.cols})
	}
	return path
}
