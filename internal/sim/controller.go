package sim

import (
	"time"

	"go.uber.org/zap"
)

// Tuning holds the adjustable behaviour parameters.
type Tuning struct {
	PlayerSpeed   float64
	BotSpeed      float64
	BotMaxSpeed   float64
	SpinRate      float64 // radians per tick while idle
	DirectDelay   int     // waypoint arrivals before committing to a straight line
	SpawnDuration time.Duration
	HuntTimeout   time.Duration
	Vision        Vision
}

// DefaultTuning returns the stock parameters.
func DefaultTuning() Tuning {
	return Tuning{
		PlayerSpeed:   3,
		BotSpeed:      1.5,
		BotMaxSpeed:   3,
		SpinRate:      0.05,
		DirectDelay:   1,
		SpawnDuration: time.Second,
		HuntTimeout:   5 * time.Second,
		Vision:        DefaultVision(),
	}
}

// Controller is the bot's state machine. Step is a transition function: it
// takes the bot by value and returns the next bot plus what happened.
//
// A transition never runs the new state's behaviour in the same tick; the
// new state acts from the following tick.
type Controller struct {
	grid     *Grid
	collider *Collider
	sensor   *Sensor
	picker   TargetPicker
	tuning   Tuning
	logger   *zap.Logger
}

// NewController wires a controller. A nil logger discards output.
func NewController(g *Grid, col *Collider, sensor *Sensor, picker TargetPicker, t Tuning, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		grid:     g,
		collider: col,
		sensor:   sensor,
		picker:   picker,
		tuning:   t,
		logger:   logger,
	}
}

// Step evaluates one tick for b against the player's position at clock now.
func (c *Controller) Step(b Bot, player Vec2, now time.Duration) (Bot, Outcome) {
	out := Outcome{From: b.State, Player: player}
	out.Sees = c.sensor.CanSee(b.Pos, b.Heading, player)

	var next BehaviorState
	switch b.State {
	case StateSpawning:
		next = c.spawning(&b, now)
	case StateExploring:
		next = c.exploring(&b, &out)
	case StateNavigating:
		next = c.navigating(&b, &out)
	case StatePursuing:
		next = c.pursuing(&b, player, &out)
	case StateHunting:
		next = c.hunting(&b, now, &out)
	default:
		next = StateExploring
	}

	if next != b.State {
		c.logger.Debug("bot state change",
			zap.Stringer("from", b.State),
			zap.Stringer("to", next),
			zap.Duration("clock", now))
		c.enter(&b, next, now)
	}
	out.To = b.State
	return b, out
}

// enter applies the entry actions of state s.
func (c *Controller) enter(b *Bot, s BehaviorState, now time.Duration) {
	b.State = s
	b.EnteredAt = now
	switch s {
	case StateExploring:
		b.HasTarget = false
		b.HasLastSeen = false
		b.Path = nil
		b.Commit = -1
		b.directBlocked = false
		b.recenter = false
	case StateNavigating:
		b.Path = nil
		b.Commit = -1
	case StatePursuing:
		b.HasTarget = false
		b.Path = nil
		b.Commit = -1
	}
}

func (c *Controller) spawning(b *Bot, now time.Duration) BehaviorState {
	b.Heading = wrapAngle(b.Heading + c.tuning.SpinRate)
	if now-b.EnteredAt > c.tuning.SpawnDuration {
		return StateExploring
	}
	return StateSpawning
}

func (c *Controller) exploring(b *Bot, out *Outcome) BehaviorState {
	if out.Sees {
		out.add(EventPlayerSighted, out.Player, 0)
		return StatePursuing
	}
	if !b.HasTarget {
		cell, ok := c.picker.PickTarget(c.grid)
		if !ok {
			return StateExploring
		}
		b.Target = c.grid.CellCenter(cell)
		b.HasTarget = true
		b.directBlocked = false
		b.recenter = false
		out.add(EventTargetPicked, b.Target, 0)
	}
	return StateNavigating
}

func (c *Controller) navigating(b *Bot, out *Outcome) BehaviorState {
	if out.Sees {
		out.add(EventPlayerSighted, out.Player, 0)
		return StatePursuing
	}
	if !b.HasTarget {
		return StateExploring
	}

	// Debounce: the straight line must stay clear across Commit arrivals.
	direct := !b.directBlocked && c.sensor.WideLineClear(b.Pos, b.Target)
	if direct {
		if b.Commit < 0 {
			b.Commit = c.tuning.DirectDelay
		}
	} else {
		b.Commit = -1
	}
	if b.Commit == 0 {
		b.Path = Path{b.Target}
		b.Commit = -1
		out.add(EventDirectCommit, b.Target, 1)
	}

	if len(b.Path) == 0 {
		b.Path = c.plan(b, direct)
		if len(b.Path) == 0 {
			c.logger.Debug("target unreachable",
				zap.Float64("x", b.Target.X), zap.Float64("y", b.Target.Y))
			out.add(EventTargetUnreachable, b.Target, 0)
			return StateExploring
		}
		out.add(EventPathPlanned, b.Target, len(b.Path))
	}

	wp := b.Path[0]
	b.Heading = HeadingTo(b.Pos, wp)
	pos, moved := c.collider.TryMove(b.Pos, b.Heading, b.Speed)
	if !moved {
		c.logger.Debug("move blocked, replanning",
			zap.Float64("x", b.Pos.X), zap.Float64("y", b.Pos.Y))
		b.Path = nil
		b.Commit = -1
		b.directBlocked = true
		b.recenter = true
		out.add(EventMoveBlocked, b.Pos, 0)
		return StateNavigating
	}
	b.Pos = pos
	if pos.DistanceTo(wp) <= b.Speed {
		b.Path = b.Path[1:]
		if b.Commit > 0 {
			b.Commit--
		}
		out.add(EventWaypointReached, wp, len(b.Path))
	}
	if len(b.Path) == 0 {
		out.add(EventArrived, b.Target, 0)
		return StateExploring
	}
	return StateNavigating
}

// plan builds a fresh route to the target: the straight line when it is
// clear, otherwise a grid search from the current cell. A bot already in the
// target's cell with the shortcut suppressed gets no route.
func (c *Controller) plan(b *Bot, direct bool) Path {
	if direct {
		return Path{b.Target}
	}
	start := c.grid.WorldToCell(b.Pos)
	goal := c.grid.WorldToCell(b.Target)
	path := c.grid.FindPath(start, goal)
	if len(path) == 0 {
		return nil
	}
	if b.recenter {
		b.recenter = false
		path = append(Path{c.grid.CellCenter(start)}, path...)
	}
	return path
}

func (c *Controller) pursuing(b *Bot, player Vec2, out *Outcome) BehaviorState {
	if !out.Sees {
		out.add(EventPlayerLost, b.LastSeen, 0)
		return StateHunting
	}
	b.LastSeen = player
	b.HasLastSeen = true
	b.Heading = HeadingTo(b.Pos, player)
	b.Pos, _ = c.collider.TryMove(b.Pos, b.Heading, b.sprintSpeed())
	return StatePursuing
}

func (c *Controller) hunting(b *Bot, now time.Duration, out *Outcome) BehaviorState {
	if now-b.EnteredAt > c.tuning.HuntTimeout {
		out.add(EventHuntTimeout, b.Pos, 0)
		return StateExploring
	}
	if out.Sees {
		out.add(EventPlayerSighted, out.Player, 0)
		return StatePursuing
	}
	if b.HasLastSeen && b.Pos.DistanceTo(b.LastSeen) > b.Speed {
		b.Heading = HeadingTo(b.Pos, b.LastSeen)
		pos, moved := c.collider.TryMove(b.Pos, b.Heading, b.Speed)
		if !moved {
			b.HasLastSeen = false
			out.add(EventMoveBlocked, b.Pos, 0)
			return StateHunting
		}
		b.Pos = pos
		if b.Pos.DistanceTo(b.LastSeen) <= b.Speed {
			out.add(EventLastSeenReached, b.LastSeen, 0)
		}
		return StateHunting
	}
	b.Heading = wrapAngle(b.Heading + c.tuning.SpinRate)
	return StateHunting
}

// SetTuning replaces the behaviour parameters between ticks.
func (c *Controller) SetTuning(t Tuning) {
	c.tuning = t
	c.sensor.vision = t.Vision
}
