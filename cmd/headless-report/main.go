package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Garsondee/Simulant/internal/config"
	"github.com/Garsondee/Simulant/internal/sim"
	"github.com/Garsondee/Simulant/internal/sim/simtest"
)

const (
	scenarioIdle      = "idle-player"
	scenarioWandering = "wandering-player"
)

// runStats is one headless run; the csv tags define runs.csv.
type runStats struct {
	RunID    string `csv:"run_id"`
	Run      int    `csv:"run"`
	Seed     int64  `csv:"seed"`
	Scenario string `csv:"scenario"`
	Ticks    int    `csv:"ticks"`

	Arrivals      int `csv:"arrivals"`
	Unreachable   int `csv:"unreachable"`
	PathsPlanned  int `csv:"paths_planned"`
	DirectCommits int `csv:"direct_commits"`
	BlockedMoves  int `csv:"blocked_moves"`
	Pursuits      int `csv:"pursuits"`
	Hunts         int `csv:"hunts"`
	HuntTimeouts  int `csv:"hunt_timeouts"`
	FirstSighting int `csv:"first_sighting_tick"`
	FirstArrival  int `csv:"first_arrival_tick"`

	TicksSpawn    int `csv:"ticks_spawn"`
	TicksExplore  int `csv:"ticks_explore"`
	TicksNavigate int `csv:"ticks_navigate"`
	TicksPursue   int `csv:"ticks_pursue"`
	TicksHunt     int `csv:"ticks_hunt"`

	FinalState string `csv:"final_state"`
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var cfgPath string
	var outDir string
	var debug bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", scenarioIdle, "scenario name (idle-player, wandering-player)")
	flag.StringVar(&cfgPath, "config", "", "YAML config file")
	flag.StringVar(&outDir, "out", "", "directory for runs.csv and config.yaml (optional)")
	flag.BoolVar(&debug, "debug", false, "log controller diagnostics to stderr")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		os.Exit(2)
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		os.Exit(2)
	}
	if scenario != scenarioIdle && scenario != scenarioWandering {
		fmt.Printf("error: unsupported scenario %q (supported: %s, %s)\n", scenario, scenarioIdle, scenarioWandering)
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	logger := zap.NewNop()
	if debug {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Printf("error: logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	out, err := newOutputManager(outDir)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Headless Bot Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n", scenario, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		rs, err := runScenario(cfg, scenario, i+1, seed, ticks, logger)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		all = append(all, rs)
		printRun(rs)
		if err := out.WriteRun(rs); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
	}

	printAggregate(all)
}

func runScenario(cfg *config.Config, scenario string, runIndex int, seed int64, ticks int, logger *zap.Logger) (runStats, error) {
	opts := simtest.ConfigOptions(cfg)
	opts = append(opts, simtest.WithSeed(seed), simtest.WithLogger(logger))
	if scenario == scenarioWandering {
		opts = append(opts, simtest.WithPlayerDriver(simtest.WanderingPlayer(90)))
	}
	ts, err := simtest.NewTestSim(opts...)
	if err != nil {
		return runStats{}, err
	}
	ts.RunTicks(ticks)
	return collectStats(ts, scenario, runIndex, seed, ticks), nil
}

func collectStats(ts *simtest.TestSim, scenario string, runIndex int, seed int64, ticks int) runStats {
	return runStats{
		RunID:         uuid.NewString(),
		Run:           runIndex,
		Seed:          seed,
		Scenario:      scenario,
		Ticks:         ticks,
		Arrivals:      ts.Counts[sim.EventArrived],
		Unreachable:   ts.Counts[sim.EventTargetUnreachable],
		PathsPlanned:  ts.Counts[sim.EventPathPlanned],
		DirectCommits: ts.Counts[sim.EventDirectCommit],
		BlockedMoves:  ts.Counts[sim.EventMoveBlocked],
		Pursuits:      ts.Entered[sim.StatePursuing],
		Hunts:         ts.Entered[sim.StateHunting],
		HuntTimeouts:  ts.Counts[sim.EventHuntTimeout],
		FirstSighting: ts.FirstSighting,
		FirstArrival:  firstTick(ts.Log(), "nav", sim.EventArrived.String()),
		TicksSpawn:    ts.StateTicks[sim.StateSpawning],
		TicksExplore:  ts.StateTicks[sim.StateExploring],
		TicksNavigate: ts.StateTicks[sim.StateNavigating],
		TicksPursue:   ts.StateTicks[sim.StatePursuing],
		TicksHunt:     ts.StateTicks[sim.StateHunting],
		FinalState:    ts.BotState().String(),
	}
}

// firstTick returns the tick of the earliest matching log entry, or -1.
func firstTick(sl *sim.SimLog, category, key string) int {
	if e, ok := sl.FirstOf(category, key); ok {
		return e.Tick
	}
	return -1
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d id=%s) ---\n", rs.Run, rs.Seed, rs.RunID)
	fmt.Printf("navigation: arrivals=%d first_arrival=%d unreachable=%d paths=%d direct_commits=%d blocked=%d\n",
		rs.Arrivals, rs.FirstArrival, rs.Unreachable, rs.PathsPlanned, rs.DirectCommits, rs.BlockedMoves)
	fmt.Printf("contact: first_sighting=%d pursuits=%d hunts=%d hunt_timeouts=%d\n",
		rs.FirstSighting, rs.Pursuits, rs.Hunts, rs.HuntTimeouts)
	fmt.Printf("state_share: %s\n", stateShare(rs))
	fmt.Printf("final_state=%s\n\n", rs.FinalState)
}

// stateShare formats the percentage of ticks spent in each state.
func stateShare(rs runStats) string {
	total := rs.TicksSpawn + rs.TicksExplore + rs.TicksNavigate + rs.TicksPursue + rs.TicksHunt
	if total == 0 {
		return "n/a"
	}
	parts := []struct {
		name  string
		ticks int
	}{
		{sim.StateSpawning.String(), rs.TicksSpawn},
		{sim.StateExploring.String(), rs.TicksExplore},
		{sim.StateNavigating.String(), rs.TicksNavigate},
		{sim.StatePursuing.String(), rs.TicksPursue},
		{sim.StateHunting.String(), rs.TicksHunt},
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, fmt.Sprintf("%s=%.1f%%", p.name, float64(p.ticks)/float64(total)*100))
	}
	return strings.Join(out, " ")
}

// summary is the spread of one metric across runs.
type summary struct {
	n      int
	mean   float64
	stddev float64
	median float64
	min    float64
	max    float64
}

func summarize(vals []float64) summary {
	if len(vals) == 0 {
		return summary{}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s := summary{
		n:      len(sorted),
		mean:   stat.Mean(sorted, nil),
		median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.stddev = stat.StdDev(sorted, nil)
	}
	return s
}

func (s summary) String() string {
	if s.n == 0 {
		return "n/a"
	}
	return fmt.Sprintf("mean=%.1f sd=%.1f median=%.1f range=%.0f..%.0f (n=%d)",
		s.mean, s.stddev, s.median, s.min, s.max, s.n)
}

// metric extracts one column from every run. skipNegative drops "never
// happened" markers such as a -1 first-sighting tick.
func metric(all []runStats, skipNegative bool, f func(runStats) int) []float64 {
	vals := make([]float64, 0, len(all))
	for _, rs := range all {
		v := f(rs)
		if skipNegative && v < 0 {
			continue
		}
		vals = append(vals, float64(v))
	}
	return vals
}

func printAggregate(all []runStats) {
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	rows := []struct {
		name string
		vals []float64
	}{
		{"arrivals", metric(all, false, func(r runStats) int { return r.Arrivals })},
		{"unreachable", metric(all, false, func(r runStats) int { return r.Unreachable })},
		{"blocked_moves", metric(all, false, func(r runStats) int { return r.BlockedMoves })},
		{"pursuits", metric(all, false, func(r runStats) int { return r.Pursuits })},
		{"hunt_timeouts", metric(all, false, func(r runStats) int { return r.HuntTimeouts })},
		{"first_sighting_tick", metric(all, true, func(r runStats) int { return r.FirstSighting })},
		{"first_arrival_tick", metric(all, true, func(r runStats) int { return r.FirstArrival })},
	}
	for _, row := range rows {
		fmt.Printf("%-20s %s\n", row.name, summarize(row.vals))
	}

	finals := map[string]int{}
	for _, rs := range all {
		finals[rs.FinalState]++
	}
	names := make([]string, 0, len(finals))
	for k := range finals {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", k, finals[k]))
	}
	fmt.Printf("final_states: %s\n", strings.Join(parts, " "))
}
