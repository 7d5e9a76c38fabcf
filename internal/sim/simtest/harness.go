// Package simtest provides a headless, deterministic harness around
// sim.Simulation for scenario tests and batch reports.
package simtest

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Simulant/internal/config"
	"github.com/Garsondee/Simulant/internal/sim"
)

// PlayerDriver moves the player before each tick.
type PlayerDriver func(ts *TestSim)

// TestSim is a headless simulation harness. It mirrors the game loop without
// any rendering dependency and keeps per-run counters.
type TestSim struct {
	Sim  *sim.Simulation
	Step time.Duration

	// Counts tallies events by kind across the run.
	Counts map[sim.EventKind]int
	// StateTicks counts ticks spent in each state (indexed by sim.BehaviorState).
	StateTicks [5]int
	// Entered counts transitions into each state.
	Entered [5]int
	// FirstSighting is the tick of the first player sighting, or -1.
	FirstSighting int

	layout  []string
	cols    int
	rows    int
	tile    float64
	tuning  sim.Tuning
	seed    int64
	verbose bool
	logger  *zap.Logger
	simOpts []sim.Option
	driver  PlayerDriver
	rng     *rand.Rand
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptWorld  simOptionKind = iota // layout, tuning, seed, step: applied first
	simOptEntity                      // spawn cells and picker: passed to the simulation
	simOptDriver                      // player behaviour: applied after the simulation exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithLayout replaces the default grid with ASCII rows ('#' wall, '.' free).
func WithLayout(rows ...string) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.layout = rows
	}}
}

// WithGridSize sets the default grid's dimensions. The barrier row scales with it.
func WithGridSize(cols, rows int) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.cols, ts.rows = cols, rows
	}}
}

// WithTileSize sets the tile edge length of the grid.
func WithTileSize(tile float64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.tile = tile
	}}
}

// WithTuning replaces the behaviour parameters.
func WithTuning(t sim.Tuning) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.tuning = t
	}}
}

// WithSeed seeds both the target picker and the player driver.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.seed = seed
		ts.rng = rand.New(rand.NewSource(seed ^ 0x5eed)) // #nosec G404 -- test harness
	}}
}

// WithStep sets the clock advance per tick.
func WithStep(d time.Duration) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Step = d
	}}
}

// WithVerbose enables per-tick position entries in the sim log.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.verbose = v
	}}
}

// WithLogger routes controller diagnostics to l.
func WithLogger(l *zap.Logger) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.logger = l
	}}
}

// WithBotCell spawns the bot in cell (x,y).
func WithBotCell(x, y int) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.simOpts = append(ts.simOpts, sim.WithBotCell(sim.Cell{X: x, Y: y}))
	}}
}

// WithPlayerCell spawns the player in cell (x,y).
func WithPlayerCell(x, y int) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.simOpts = append(ts.simOpts, sim.WithPlayerCell(sim.Cell{X: x, Y: y}))
	}}
}

// WithEntityScale sets the entity box edge as a fraction of the tile.
func WithEntityScale(scale float64) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.simOpts = append(ts.simOpts, sim.WithEntityScale(scale))
	}}
}

// WithTargetPicker replaces the seeded random picker.
func WithTargetPicker(p sim.TargetPicker) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.simOpts = append(ts.simOpts, sim.WithPicker(p))
	}}
}

// WithTargets makes the bot explore the given cells in order, then report
// no target.
func WithTargets(cells ...sim.Cell) SimOption {
	i := 0
	return WithTargetPicker(sim.TargetPickerFunc(func(*sim.Grid) (sim.Cell, bool) {
		if i >= len(cells) {
			return sim.Cell{}, false
		}
		c := cells[i]
		i++
		return c, true
	}))
}

// WithPlayerDriver moves the player with d before every tick.
func WithPlayerDriver(d PlayerDriver) SimOption {
	return SimOption{simOptDriver, func(ts *TestSim) {
		ts.driver = d
	}}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. World (layout, tuning, seed, step)
//  2. Build the grid and the simulation with entity options
//  3. Player driver
func NewTestSim(opts ...SimOption) (*TestSim, error) {
	ts := &TestSim{
		Step:          time.Second / 60,
		Counts:        make(map[sim.EventKind]int),
		FirstSighting: -1,
		cols:          20,
		rows:          15,
		tile:          40,
		tuning:        sim.DefaultTuning(),
		seed:          1,
		rng:           rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
	}
	for _, o := range opts {
		if o.kind == simOptWorld {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptEntity {
			o.fn(ts)
		}
	}

	g, err := ts.buildGrid()
	if err != nil {
		return nil, err
	}
	base := []sim.Option{
		sim.WithSeed(ts.seed),
		sim.WithVerboseLog(ts.verbose),
		sim.WithLogger(ts.logger),
	}
	ts.Sim, err = sim.NewSimulation(g, ts.tuning, append(base, ts.simOpts...)...)
	if err != nil {
		return nil, err
	}

	for _, o := range opts {
		if o.kind == simOptDriver {
			o.fn(ts)
		}
	}
	return ts, nil
}

// ConfigOptions translates a loaded config into harness options: grid,
// spawns, tuning and tick step. Seeds are left to the caller.
func ConfigOptions(cfg *config.Config) []SimOption {
	opts := []SimOption{
		WithTileSize(cfg.World.TileSize),
		WithGridSize(cfg.World.Cols, cfg.World.Rows),
		WithTuning(sim.TuningFromConfig(cfg)),
		WithStep(cfg.Derived.Step),
		WithEntityScale(cfg.Entity.BoxScale),
		WithBotCell(cfg.World.BotSpawn.X, cfg.World.BotSpawn.Y),
		WithPlayerCell(cfg.World.PlayerSpawn.X, cfg.World.PlayerSpawn.Y),
	}
	if len(cfg.World.Layout) > 0 {
		opts = append(opts, WithLayout(cfg.World.Layout...))
	}
	return opts
}

func (ts *TestSim) buildGrid() (*sim.Grid, error) {
	if len(ts.layout) > 0 {
		return sim.ParseLayout(ts.layout, ts.tile)
	}
	return sim.NewGrid(ts.cols, ts.rows, ts.tile, sim.DefaultBarrier(ts.cols, ts.rows))
}

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.runOneTick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.runOneTick()
		if predicate(ts) {
			return ts.Tick()
		}
	}
	return -1
}

func (ts *TestSim) runOneTick() sim.Outcome {
	if ts.driver != nil {
		ts.driver(ts)
	}
	out := ts.Sim.Tick(ts.Step)
	for _, e := range out.Events {
		ts.Counts[e.Kind]++
		if e.Kind == sim.EventPlayerSighted && ts.FirstSighting < 0 {
			ts.FirstSighting = ts.Tick()
		}
	}
	if out.Changed() {
		ts.Entered[out.To]++
	}
	ts.StateTicks[out.To]++
	return out
}

// Tick returns the number of ticks run so far.
func (ts *TestSim) Tick() int { return ts.Sim.Snapshot().Tick }

// Snapshot returns the current simulation state.
func (ts *TestSim) Snapshot() sim.SimulationState { return ts.Sim.Snapshot() }

// Log returns the structured event log.
func (ts *TestSim) Log() *sim.SimLog { return ts.Sim.SimLog() }

// BotState returns the bot's current behaviour state.
func (ts *TestSim) BotState() sim.BehaviorState { return ts.Sim.BotState() }

// Rand exposes the harness RNG to player drivers.
func (ts *TestSim) Rand() *rand.Rand { return ts.rng }

// WanderingPlayer walks the player in a straight line at player speed,
// picking a new random heading every turnEvery ticks or when blocked.
func WanderingPlayer(turnEvery int) PlayerDriver {
	heading := 0.0
	left := 0
	return func(ts *TestSim) {
		if left <= 0 {
			heading = ts.rng.Float64() * 2 * math.Pi
			left = turnEvery
		}
		left--
		if !ts.Sim.MovePlayer(heading, ts.Sim.PlayerSpeed()) {
			left = 0
		}
	}
}
