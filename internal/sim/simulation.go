package sim

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Simulant/internal/config"
)

// SimulationState is everything that changes from tick to tick.
type SimulationState struct {
	Tick   int
	Clock  time.Duration
	Player Entity
	Bot    Bot
}

// Simulation owns one SimulationState and the static world it runs in.
type Simulation struct {
	grid     *Grid
	collider *Collider
	sensor   *Sensor
	ctrl     *Controller
	tuning   Tuning

	state SimulationState

	thoughts *ThoughtLog
	simLog   *SimLog
	logger   *zap.Logger
}

// Option customises a Simulation at construction.
type Option func(*simOptions)

type simOptions struct {
	logger      *zap.Logger
	picker      TargetPicker
	seed        int64
	playerCell  *Cell
	botCell     *Cell
	verbose     bool
	entityScale float64
}

// WithLogger routes diagnostic output to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *simOptions) { o.logger = l }
}

// WithPicker replaces the random exploration target picker.
func WithPicker(p TargetPicker) Option {
	return func(o *simOptions) { o.picker = p }
}

// WithSeed seeds the default random target picker.
func WithSeed(seed int64) Option {
	return func(o *simOptions) { o.seed = seed }
}

// WithPlayerCell spawns the player at the centre of c.
func WithPlayerCell(c Cell) Option {
	return func(o *simOptions) { o.playerCell = &c }
}

// WithBotCell spawns the bot at the centre of c.
func WithBotCell(c Cell) Option {
	return func(o *simOptions) { o.botCell = &c }
}

// WithVerboseLog records per-tick positions in the SimLog.
func WithVerboseLog(v bool) Option {
	return func(o *simOptions) { o.verbose = v }
}

// WithEntityScale sets the entity box edge as a fraction of the tile.
func WithEntityScale(s float64) Option {
	return func(o *simOptions) { o.entityScale = s }
}

// NewSimulation builds a simulation on g. Unless overridden, the player spawns
// in cell (2,2) and the bot in cell (10,5).
func NewSimulation(g *Grid, t Tuning, opts ...Option) (*Simulation, error) {
	o := simOptions{
		seed:        time.Now().UnixNano(),
		playerCell:  &Cell{2, 2},
		botCell:     &Cell{10, 5},
		entityScale: 0.8,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.picker == nil {
		o.picker = NewRandomPicker(o.seed)
	}
	for _, c := range []Cell{*o.playerCell, *o.botCell} {
		if g.IsWall(c) {
			return nil, fmt.Errorf("%w: spawn cell (%d,%d) is a wall", ErrBadLayout, c.X, c.Y)
		}
	}

	col := NewCollider(g, g.TileSize()*o.entityScale)
	sensor := NewSensor(g, col, t.Vision)
	s := &Simulation{
		grid:     g,
		collider: col,
		sensor:   sensor,
		ctrl:     NewController(g, col, sensor, o.picker, t, o.logger),
		tuning:   t,
		thoughts: NewThoughtLog(),
		simLog:   NewSimLog(o.verbose),
		logger:   o.logger,
	}
	s.state = SimulationState{
		Player: Entity{Pos: g.CellCenter(*o.playerCell), Speed: t.PlayerSpeed},
		Bot:    NewBot(g.CellCenter(*o.botCell), t.BotSpeed, t.BotMaxSpeed, 0),
	}
	return s, nil
}

// GridFromConfig builds the grid described by cfg.
func GridFromConfig(cfg *config.Config) (*Grid, error) {
	if len(cfg.World.Layout) > 0 {
		return ParseLayout(cfg.World.Layout, cfg.World.TileSize)
	}
	return NewGrid(cfg.World.Cols, cfg.World.Rows, cfg.World.TileSize,
		DefaultBarrier(cfg.World.Cols, cfg.World.Rows))
}

// TuningFromConfig extracts the behaviour parameters from cfg.
func TuningFromConfig(cfg *config.Config) Tuning {
	return Tuning{
		PlayerSpeed:   cfg.Player.Speed,
		BotSpeed:      cfg.Bot.Speed,
		BotMaxSpeed:   cfg.Bot.MaxSpeed,
		SpinRate:      cfg.Bot.SpinRate,
		DirectDelay:   cfg.Bot.DirectDelay,
		SpawnDuration: cfg.Bot.SpawnDuration,
		HuntTimeout:   cfg.Bot.HuntTimeout,
		Vision: Vision{
			FOV:      cfg.Derived.FOVRad,
			Range:    cfg.Vision.SightRange,
			Step:     cfg.Vision.LOSStep,
			WideStep: cfg.Vision.WideStep,
		},
	}
}

// NewFromConfig builds a simulation from cfg. Options given here override
// the config-derived ones.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Simulation, error) {
	g, err := GridFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithPlayerCell(Cell{cfg.World.PlayerSpawn.X, cfg.World.PlayerSpawn.Y}),
		WithBotCell(Cell{cfg.World.BotSpawn.X, cfg.World.BotSpawn.Y}),
		WithEntityScale(cfg.Entity.BoxScale),
	}
	if cfg.Sim.Seed != 0 {
		base = append(base, WithSeed(cfg.Sim.Seed))
	}
	return NewSimulation(g, TuningFromConfig(cfg), append(base, opts...)...)
}

// Tick advances the clock by dt and runs one behaviour step. Speeds are per
// tick; dt only drives the spawn and hunt timers.
func (s *Simulation) Tick(dt time.Duration) Outcome {
	s.state.Tick++
	s.state.Clock += dt
	bot, out := s.ctrl.Step(s.state.Bot, s.state.Player.Pos, s.state.Clock)
	s.state.Bot = bot
	s.record(out)
	return out
}

// MovePlayer steps the player along heading, subject to the same collision
// rules as the bot. It reports whether the player moved.
func (s *Simulation) MovePlayer(heading, speed float64) bool {
	pos, moved := s.collider.TryMove(s.state.Player.Pos, heading, speed)
	s.state.Player.Pos = pos
	return moved
}

// ApplyTuning swaps behaviour parameters between ticks.
func (s *Simulation) ApplyTuning(t Tuning) {
	s.tuning = t
	s.ctrl.SetTuning(t)
	s.state.Player.Speed = t.PlayerSpeed
	s.state.Bot.Speed = t.BotSpeed
	s.state.Bot.MaxSpeed = t.BotMaxSpeed
	s.logger.Info("tuning applied",
		zap.Float64("bot_speed", t.BotSpeed),
		zap.Float64("player_speed", t.PlayerSpeed),
		zap.Float64("sight_range", t.Vision.Range))
}

func (s *Simulation) Grid() *Grid             { return s.grid }
func (s *Simulation) Tuning() Tuning          { return s.tuning }
func (s *Simulation) Thoughts() *ThoughtLog   { return s.thoughts }
func (s *Simulation) SimLog() *SimLog         { return s.simLog }
func (s *Simulation) EntitySize() float64     { return s.collider.EntitySize() }
func (s *Simulation) BotPosition() Vec2       { return s.state.Bot.Pos }
func (s *Simulation) BotHeading() float64     { return s.state.Bot.Heading }
func (s *Simulation) BotState() BehaviorState { return s.state.Bot.State }
func (s *Simulation) PlayerPosition() Vec2    { return s.state.Player.Pos }
func (s *Simulation) PlayerSpeed() float64    { return s.state.Player.Speed }

// Snapshot returns a copy of the current state. The Path slice is shared.
func (s *Simulation) Snapshot() SimulationState { return s.state }

// SetState replaces the whole simulation state, e.g. to stage a test.
func (s *Simulation) SetState(st SimulationState) { s.state = st }

// Path returns a copy of the bot's remaining waypoints.
func (s *Simulation) Path() Path {
	return append(Path(nil), s.state.Bot.Path...)
}

// VisionCone describes the bot's cone for overlay drawing.
func (s *Simulation) VisionCone() Cone {
	v := s.sensor.Vision()
	return Cone{
		Apex:    s.state.Bot.Pos,
		Heading: s.state.Bot.Heading,
		FOV:     v.FOV,
		Length:  v.Range,
	}
}

// CanSeePlayer evaluates the bot's current view of the player.
func (s *Simulation) CanSeePlayer() bool {
	return s.sensor.CanSee(s.state.Bot.Pos, s.state.Bot.Heading, s.state.Player.Pos)
}

// record writes an outcome to the thought log, the sim log and the logger.
func (s *Simulation) record(out Outcome) {
	tick := s.state.Tick
	if out.Changed() {
		msg := fmt.Sprintf("%s → %s", out.From, out.To)
		s.thoughts.Add(tick, out.To, msg)
		s.simLog.Add(tick, "state", "change", msg, 0)
	}
	for _, e := range out.Events {
		switch e.Kind {
		case EventWaypointReached:
			s.simLog.AddVerbose(tick, "nav", e.Kind.String(), e.String(), float64(e.N))
			continue
		case EventPathPlanned, EventTargetPicked, EventTargetUnreachable, EventArrived, EventDirectCommit:
			s.simLog.Add(tick, "nav", e.Kind.String(), e.String(), float64(e.N))
		case EventMoveBlocked:
			s.simLog.Add(tick, "move", e.Kind.String(), e.String(), 0)
			s.logger.Debug("bot move blocked", zap.Int("tick", tick), zap.Stringer("state", out.To))
		case EventPlayerSighted, EventPlayerLost:
			s.simLog.Add(tick, "vision", e.Kind.String(), e.String(), 0)
		case EventLastSeenReached, EventHuntTimeout:
			s.simLog.Add(tick, "hunt", e.Kind.String(), e.String(), 0)
		}
		s.thoughts.Add(tick, out.To, e.String())
	}
	b := s.state.Bot
	s.simLog.AddVerbose(tick, "move", "position",
		fmt.Sprintf("(%.1f,%.1f) h=%.2f", b.Pos.X, b.Pos.Y, b.Heading), 0)
}

// Report returns a multi-line text summary of the current state.
func (s *Simulation) Report() string {
	st := s.state
	b := st.Bot
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Bot report at T=%03d (%s) ---\n", st.Tick, st.Clock.Round(time.Millisecond))
	fmt.Fprintf(&sb, "state:    %s (for %s)\n", b.State, (st.Clock - b.EnteredAt).Round(time.Millisecond))
	fmt.Fprintf(&sb, "bot:      (%.1f,%.1f) heading %.1f°\n", b.Pos.X, b.Pos.Y, b.Heading*180/math.Pi)
	fmt.Fprintf(&sb, "player:   (%.1f,%.1f) visible=%t\n", st.Player.Pos.X, st.Player.Pos.Y, s.CanSeePlayer())
	if b.HasTarget {
		fmt.Fprintf(&sb, "target:   (%.0f,%.0f)\n", b.Target.X, b.Target.Y)
	} else {
		sb.WriteString("target:   none\n")
	}
	if b.HasLastSeen {
		fmt.Fprintf(&sb, "last seen: (%.0f,%.0f)\n", b.LastSeen.X, b.LastSeen.Y)
	}
	fmt.Fprintf(&sb, "path:     %d waypoints, commit=%d\n", len(b.Path), b.Commit)
	sb.WriteString("recent thoughts:\n")
	for _, e := range s.thoughts.Recent() {
		fmt.Fprintf(&sb, "  %4d [%s] %s\n", e.Tick, e.State, e.Message)
	}
	return sb.String()
}
