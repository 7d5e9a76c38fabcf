package sim

import (
	"math"
	"testing"
	"time"
)

const testStep = time.Second / 60

// farPlayer sits in cell (2,2), more than 300 units from the bot spawn.
var farPlayer = Vec2{100, 100}

func newTestController(t *testing.T, g *Grid, picker TargetPicker) *Controller {
	t.Helper()
	col := NewCollider(g, g.TileSize()*0.8)
	if picker == nil {
		picker = NewRandomPicker(1)
	}
	return NewController(g, col, NewSensor(g, col, DefaultVision()), picker, DefaultTuning(), nil)
}

func fixedPicker(c Cell) TargetPicker {
	return TargetPickerFunc(func(*Grid) (Cell, bool) { return c, true })
}

func testBot(pos Vec2, state BehaviorState) Bot {
	tu := DefaultTuning()
	b := NewBot(pos, tu.BotSpeed, tu.BotMaxSpeed, 0)
	b.State = state
	return b
}

func TestController_SpawnSpinsThenExplores(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := NewBot(g.CellCenter(Cell{10, 5}), 1.5, 3, 0)

	var now time.Duration
	for i := 0; i < 120 && b.State == StateSpawning; i++ {
		now += testStep
		prevHeading := b.Heading
		b, _ = c.Step(b, farPlayer, now)
		if b.State == StateSpawning && math.Abs(wrapAngle(b.Heading-prevHeading)-0.05) > 1e-9 {
			t.Fatalf("tick %d: spawning bot should spin 0.05 rad", i)
		}
	}
	if b.State != StateExploring {
		t.Fatalf("expected explore after spawn, got %s", b.State)
	}
	if now <= time.Second || now-testStep > time.Second {
		t.Fatalf("spawn ended at %s, want the first tick past 1s", now)
	}
	if b.EnteredAt != now {
		t.Fatalf("EnteredAt = %s, want %s", b.EnteredAt, now)
	}
	if b.Pos != g.CellCenter(Cell{10, 5}) {
		t.Fatal("spawning bot should not move")
	}
}

func TestController_SpawnIgnoresVisiblePlayer(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StateSpawning)
	b, out := c.Step(b, Vec2{480, 220}, testStep)
	if b.State != StateSpawning {
		t.Fatalf("spawning should not react to the player, got %s", b.State)
	}
	if !out.Sees {
		t.Fatal("precondition: player should be visible")
	}
}

func TestController_ExplorePicksTarget(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, fixedPicker(Cell{15, 10}))
	b := testBot(Vec2{420, 220}, StateExploring)
	b.Heading = math.Pi

	b, out := c.Step(b, farPlayer, testStep)
	if b.State != StateNavigating {
		t.Fatalf("expected navigate, got %s", b.State)
	}
	if !b.HasTarget || b.Target != g.CellCenter(Cell{15, 10}) {
		t.Fatalf("target = %v (set %v), want centre of (15,10)", b.Target, b.HasTarget)
	}
	if len(b.Path) != 0 {
		t.Fatal("entering navigate should start with an empty path")
	}
	if !out.Has(EventTargetPicked) || !out.Changed() {
		t.Fatalf("expected target_picked and a state change, got %+v", out)
	}
	if b.Pos != (Vec2{420, 220}) {
		t.Fatal("the new state should not act in the transition tick")
	}
}

func TestController_ExploreWithoutTargetStays(t *testing.T) {
	g := defaultGrid(t)
	none := TargetPickerFunc(func(*Grid) (Cell, bool) { return Cell{}, false })
	c := newTestController(t, g, none)
	b := testBot(Vec2{420, 220}, StateExploring)
	b, _ = c.Step(b, farPlayer, testStep)
	if b.State != StateExploring {
		t.Fatalf("expected explore when no target exists, got %s", b.State)
	}
}

func TestController_ExploreSeesPlayer(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, fixedPicker(Cell{15, 10}))
	b := testBot(Vec2{420, 220}, StateExploring)
	player := Vec2{520, 220}

	b, out := c.Step(b, player, testStep)
	if b.State != StatePursuing {
		t.Fatalf("expected pursue, got %s", b.State)
	}
	if !out.Has(EventPlayerSighted) {
		t.Fatal("expected player_sighted")
	}
	if b.HasTarget {
		t.Fatal("pursuit should clear the exploration target")
	}
}

func TestController_NavigateDirectWhenClear(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{100, 100}, StateNavigating)
	b.Target, b.HasTarget = Vec2{300, 100}, true

	b, out := c.Step(b, Vec2{700, 500}, testStep)
	if b.State != StateNavigating {
		t.Fatalf("expected navigate, got %s", b.State)
	}
	if len(b.Path) != 1 || b.Path[0] != b.Target {
		t.Fatalf("clear line should plan a single waypoint, got %v", b.Path)
	}
	if b.Commit != 1 {
		t.Fatalf("commit counter should start at the direct delay, got %d", b.Commit)
	}
	if math.Abs(b.Pos.X-101.5) > 1e-9 {
		t.Fatalf("expected a 1.5 unit step, got %v", b.Pos)
	}
	if !out.Has(EventPathPlanned) {
		t.Fatal("expected path_planned")
	}
}

func TestController_NavigateCommitsAfterDelay(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	tu := DefaultTuning()
	tu.DirectDelay = 0
	c.SetTuning(tu)

	b := testBot(Vec2{100, 100}, StateNavigating)
	b.Target, b.HasTarget = Vec2{300, 100}, true
	b.Path = Path{{140, 100}, {180, 100}}

	b, out := c.Step(b, Vec2{700, 500}, testStep)
	if !out.Has(EventDirectCommit) {
		t.Fatal("expected direct_commit once the counter reaches zero")
	}
	if len(b.Path) != 1 || b.Path[0] != b.Target {
		t.Fatalf("committed path should be the target alone, got %v", b.Path)
	}
	if b.Commit != -1 {
		t.Fatalf("commit counter should reset after committing, got %d", b.Commit)
	}
}

func TestController_NavigateAroundBarrier(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(g.CellCenter(Cell{10, 5}), StateNavigating)
	b.Target, b.HasTarget = g.CellCenter(Cell{10, 9}), true

	b, out := c.Step(b, farPlayer, testStep)
	if !out.Has(EventPathPlanned) {
		t.Fatal("expected path_planned")
	}
	if b.Commit != -1 {
		t.Fatal("blocked straight line should keep the commit counter inactive")
	}
	// 14 cells around the barrier end; the first may already be reached.
	if n := len(b.Path); n != 14 && n != 13 {
		t.Fatalf("expected a 14 waypoint route, got %d", n)
	}
}

func TestController_NavigateArrives(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{100, 100}, StateNavigating)
	b.Target, b.HasTarget = Vec2{101, 100}, true

	b, out := c.Step(b, Vec2{700, 500}, testStep)
	if !out.Has(EventArrived) {
		t.Fatal("expected arrived")
	}
	if b.State != StateExploring {
		t.Fatalf("expected explore after arrival, got %s", b.State)
	}
	if b.HasTarget || len(b.Path) != 0 {
		t.Fatal("explore should clear target and path")
	}
}

func TestController_NavigateUnreachable(t *testing.T) {
	g, err := ParseLayout([]string{
		"#########",
		"#.......#",
		"#....###.",
		"#....#.#.",
		"#....###.",
		"#########",
	}, 40)
	if err != nil {
		t.Fatal(err)
	}
	c := newTestController(t, g, nil)
	b := testBot(g.CellCenter(Cell{1, 3}), StateNavigating)
	b.Target, b.HasTarget = g.CellCenter(Cell{6, 3}), true

	b, out := c.Step(b, Vec2{1000, 1000}, testStep)
	if !out.Has(EventTargetUnreachable) {
		t.Fatal("expected unreachable")
	}
	if b.State != StateExploring || b.HasTarget {
		t.Fatalf("unreachable target should return to explore and clear it, got %s", b.State)
	}
}

func TestController_BlockedMoveReplansFromCellCentre(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	// 3 units from the cell centre, 1 unit clear of the border wall.
	start := Vec2{57, 60}
	b := testBot(start, StateNavigating)
	b.Target, b.HasTarget = g.CellCenter(Cell{7, 1}), true
	b.Path = Path{{20, 60}} // inside the border wall

	b, out := c.Step(b, Vec2{700, 500}, testStep)
	if !out.Has(EventMoveBlocked) {
		t.Fatal("expected move_blocked")
	}
	if b.State != StateNavigating || b.Pos != start {
		t.Fatalf("blocked bot should stay put and keep navigating, got %s at %v", b.State, b.Pos)
	}
	if len(b.Path) != 0 || !b.directBlocked || !b.recenter {
		t.Fatal("blocked move should clear the path and flag a recentred replan")
	}

	b, out = c.Step(b, Vec2{700, 500}, 2*testStep)
	if out.Has(EventMoveBlocked) {
		t.Fatal("replanned route should not be blocked")
	}
	var planned Event
	for _, e := range out.Events {
		if e.Kind == EventPathPlanned {
			planned = e
		}
	}
	if planned.N != 7 {
		t.Fatalf("expected 6 cells plus the current centre, got %d waypoints", planned.N)
	}
	if b.recenter {
		t.Fatal("recenter should be consumed by the replan")
	}
	if b.Commit != -1 {
		t.Fatal("direct shortcut should stay suppressed for this target")
	}
}

func TestController_PursueSprintsAndRecords(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StatePursuing)
	player := Vec2{520, 220}

	b, _ = c.Step(b, player, testStep)
	if b.State != StatePursuing {
		t.Fatalf("expected pursue, got %s", b.State)
	}
	if !b.HasLastSeen || b.LastSeen != player {
		t.Fatal("pursuit should record the player's position")
	}
	if math.Abs(b.Pos.X-423) > 1e-9 {
		t.Fatalf("pursuit should move at max speed 3, got %v", b.Pos)
	}
}

func TestController_PursueLostBecomesHunt(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StatePursuing)
	b.Heading = math.Pi / 2
	b.LastSeen, b.HasLastSeen = Vec2{420, 260}, true

	// Behind the barrier.
	b, out := c.Step(b, Vec2{420, 340}, 3*time.Second)
	if b.State != StateHunting {
		t.Fatalf("expected hunt, got %s", b.State)
	}
	if !out.Has(EventPlayerLost) {
		t.Fatal("expected player_lost")
	}
	if !b.HasLastSeen || b.LastSeen != (Vec2{420, 260}) {
		t.Fatal("hunt should keep the last-seen position")
	}
	if b.EnteredAt != 3*time.Second {
		t.Fatalf("hunt timer should start at the transition, got %s", b.EnteredAt)
	}
}

func TestController_HuntMovesTowardLastSeen(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StateHunting)
	b.LastSeen, b.HasLastSeen = Vec2{520, 220}, true

	b, _ = c.Step(b, farPlayer, testStep)
	if b.State != StateHunting {
		t.Fatalf("expected hunt, got %s", b.State)
	}
	if math.Abs(b.Pos.X-421.5) > 1e-9 || b.Heading != 0 {
		t.Fatalf("hunt should walk toward last seen, got %v heading %.2f", b.Pos, b.Heading)
	}
}

func TestController_HuntSpinsAtLastSeen(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StateHunting)
	b.Heading = math.Pi
	b.LastSeen, b.HasLastSeen = Vec2{421, 220}, true

	b, _ = c.Step(b, Vec2{700, 500}, testStep)
	if b.Pos != (Vec2{420, 220}) {
		t.Fatal("bot within one step of last seen should not move")
	}
	if math.Abs(b.Heading-wrapAngle(math.Pi+0.05)) > 1e-9 {
		t.Fatalf("bot should spin in place, heading %.3f", b.Heading)
	}
}

func TestController_HuntTimeout(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, fixedPicker(Cell{15, 10}))
	b := testBot(Vec2{420, 220}, StateHunting)
	b.LastSeen, b.HasLastSeen = Vec2{421, 220}, true
	b.Target, b.HasTarget = Vec2{620, 420}, true

	b, _ = c.Step(b, farPlayer, 5*time.Second)
	if b.State != StateHunting {
		t.Fatal("hunt should last the full timeout")
	}
	b, out := c.Step(b, farPlayer, 5*time.Second+testStep)
	if b.State != StateExploring {
		t.Fatalf("expected explore after timeout, got %s", b.State)
	}
	if !out.Has(EventHuntTimeout) {
		t.Fatal("expected hunt_timeout")
	}
	if b.HasTarget || b.HasLastSeen {
		t.Fatal("timeout should clear both target and last-seen position")
	}
}

func TestController_HuntTimeoutBeatsSighting(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StateHunting)

	b, out := c.Step(b, Vec2{480, 220}, 6*time.Second)
	if !out.Sees {
		t.Fatal("precondition: player should be visible")
	}
	if b.State != StateExploring {
		t.Fatalf("timeout should win over a sighting, got %s", b.State)
	}
}

func TestController_HuntResightsPlayer(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{420, 220}, StateHunting)

	b, _ = c.Step(b, Vec2{480, 220}, time.Second)
	if b.State != StatePursuing {
		t.Fatalf("expected pursue when the player reappears, got %s", b.State)
	}
}

func TestController_BlockedInTargetCellAbandons(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	b := testBot(Vec2{57, 60}, StateNavigating)
	b.Target, b.HasTarget = g.CellCenter(Cell{1, 1}), true
	b.directBlocked = true

	b, out := c.Step(b, Vec2{700, 500}, testStep)
	if !out.Has(EventTargetUnreachable) {
		t.Fatal("no grid route inside the target cell should be unreachable")
	}
	if b.State != StateExploring || b.HasTarget {
		t.Fatalf("expected explore with the target cleared, got %s", b.State)
	}
	if b.Pos != (Vec2{57, 60}) {
		t.Fatal("abandoning the target should not move the bot")
	}
}

func TestController_HuntBlockedClearsLastSeen(t *testing.T) {
	g := defaultGrid(t)
	c := newTestController(t, g, nil)
	// Just above the barrier on row 7; last seen below it.
	start := Vec2{420, 263.5}
	b := testBot(start, StateHunting)
	b.LastSeen, b.HasLastSeen = Vec2{420, 400}, true

	b, out := c.Step(b, farPlayer, testStep)
	if b.State != StateHunting {
		t.Fatalf("blocked hunt should keep hunting, got %s", b.State)
	}
	if !out.Has(EventMoveBlocked) {
		t.Fatal("expected move_blocked")
	}
	if b.Pos != start {
		t.Fatalf("rejected move should leave the bot at %v, got %v", start, b.Pos)
	}
	if b.HasLastSeen {
		t.Fatal("rejected move should clear the last-seen position")
	}

	// With nothing left to walk to, the bot spins in place.
	heading := b.Heading
	b, _ = c.Step(b, farPlayer, 2*testStep)
	if b.Pos != start || math.Abs(wrapAngle(b.Heading-heading)-0.05) > 1e-9 {
		t.Fatalf("expected an idle spin, got %v heading %.3f", b.Pos, b.Heading)
	}
}
