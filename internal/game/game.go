package game

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Simulant/internal/config"
	"github.com/Garsondee/Simulant/internal/sim"
)

// statusFrames is how long a status line stays on screen.
const statusFrames = 120

// Game is the windowed front end: it feeds keyboard input to the simulation,
// ticks it once per frame and draws the result.
type Game struct {
	cfg     *config.Config
	cfgPath string
	sim     *sim.Simulation
	logger  *zap.Logger
	watcher *config.Watcher

	screenW int // world viewport
	screenH int

	paused   bool
	prevKeys map[ebiten.Key]bool

	rng            *rand.Rand // bark phrase choice only
	speechBubbles  []*SpeechBubble
	lastSpeechTick int

	// Transient status line (copy confirmation, reload result).
	status      string
	statusTimer int
}

// New builds the simulation from cfg. When cfgPath is set the file is watched
// and tunables are re-applied whenever it changes.
func New(cfg *config.Config, cfgPath string, logger *zap.Logger) (*Game, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := sim.NewFromConfig(cfg, sim.WithLogger(logger.Named("sim")))
	if err != nil {
		return nil, fmt.Errorf("game: building simulation: %w", err)
	}
	g := &Game{
		cfg:      cfg,
		cfgPath:  cfgPath,
		sim:      s,
		logger:   logger,
		screenW:  cfg.Screen.Width,
		screenH:  cfg.Screen.Height,
		prevKeys: make(map[ebiten.Key]bool),
		rng:      rand.New(rand.NewSource(cfg.Sim.Seed)), // #nosec G404 -- cosmetic
	}
	if cfgPath != "" {
		w, err := config.Watch(cfgPath)
		if err != nil {
			logger.Warn("config hot reload disabled", zap.String("path", cfgPath), zap.Error(err))
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// Close releases the config watcher.
func (g *Game) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}

// Sim exposes the running simulation.
func (g *Game) Sim() *sim.Simulation { return g.sim }

func (g *Game) Update() error {
	g.pollConfig()
	g.handleInput()
	if g.statusTimer > 0 {
		g.statusTimer--
	}
	if g.paused {
		return nil
	}
	out := g.sim.Tick(g.cfg.Derived.Step)
	if out.Changed() {
		g.logger.Debug("bot state", zap.Stringer("from", out.From), zap.Stringer("to", out.To))
	}
	g.UpdateSpeech(g.rng, out)
	return nil
}

// handleInput moves the player and processes toggle keys (edge-triggered).
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}

	var dx, dy float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy++
	}
	if heading, ok := InputHeading(dx, dy); ok && !g.paused {
		g.sim.MovePlayer(heading, g.sim.PlayerSpeed())
	}

	// P: pause / resume.
	currentKeys[ebiten.KeyP] = ebiten.IsKeyPressed(ebiten.KeyP)
	if currentKeys[ebiten.KeyP] && !g.prevKeys[ebiten.KeyP] {
		g.paused = !g.paused
	}

	// C: copy the bot report.
	currentKeys[ebiten.KeyC] = ebiten.IsKeyPressed(ebiten.KeyC)
	if currentKeys[ebiten.KeyC] && !g.prevKeys[ebiten.KeyC] {
		g.copyReport()
	}

	g.prevKeys = currentKeys
}

func (g *Game) copyReport() {
	if err := clipboard.WriteAll(g.sim.Report()); err != nil {
		g.logger.Warn("copy report failed", zap.Error(err))
		g.setStatus("copy failed: " + err.Error())
		return
	}
	g.setStatus("report copied to clipboard")
}

// pollConfig applies a pending config change without blocking the frame.
func (g *Game) pollConfig() {
	if g.watcher == nil {
		return
	}
	select {
	case path := <-g.watcher.Events:
		g.reload(path)
	case err := <-g.watcher.Errors:
		g.logger.Warn("config watcher", zap.Error(err))
	default:
	}
}

func (g *Game) reload(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		g.logger.Warn("config reload rejected", zap.String("path", path), zap.Error(err))
		g.setStatus("config reload failed")
		return
	}
	// Grid, spawns and screen size are fixed for the session; only tunables change.
	g.cfg.Player = cfg.Player
	g.cfg.Bot = cfg.Bot
	g.cfg.Vision = cfg.Vision
	g.cfg.Derived.FOVRad = cfg.Derived.FOVRad
	g.sim.ApplyTuning(sim.TuningFromConfig(g.cfg))
	g.setStatus("config reloaded")
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusTimer = statusFrames
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.screenW + logPanelWidth, g.screenH
}

// InputHeading turns an arrow-key vector into a heading. ok is false when no
// direction is held.
func InputHeading(dx, dy float64) (heading float64, ok bool) {
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return math.Atan2(dy, dx), true
}

// CameraOffset returns the world position of the viewport's top-left corner:
// the player centred, clamped so the view never leaves the world.
func CameraOffset(player, world sim.Vec2, screenW, screenH int) sim.Vec2 {
	return sim.Vec2{
		X: clampAxis(player.X-float64(screenW)/2, world.X-float64(screenW)),
		Y: clampAxis(player.Y-float64(screenH)/2, world.Y-float64(screenH)),
	}
}

func clampAxis(v, hi float64) float64 {
	if hi < 0 {
		hi = 0
	}
	return math.Max(0, math.Min(v, hi))
}
