package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Garsondee/Simulant/internal/config"
	"github.com/Garsondee/Simulant/internal/sim"
)

func TestCameraOffset_Clamps(t *testing.T) {
	world := sim.Vec2{X: 1600, Y: 1200}
	cases := []struct {
		name   string
		player sim.Vec2
		want   sim.Vec2
	}{
		{"top-left corner", sim.Vec2{X: 100, Y: 100}, sim.Vec2{X: 0, Y: 0}},
		{"centred", sim.Vec2{X: 800, Y: 600}, sim.Vec2{X: 400, Y: 300}},
		{"bottom-right corner", sim.Vec2{X: 1550, Y: 1150}, sim.Vec2{X: 800, Y: 600}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CameraOffset(tc.player, world, 800, 600); got != tc.want {
				t.Fatalf("CameraOffset(%v) = %v, want %v", tc.player, got, tc.want)
			}
		})
	}
}

func TestCameraOffset_WorldSmallerThanScreen(t *testing.T) {
	got := CameraOffset(sim.Vec2{X: 700, Y: 500}, sim.Vec2{X: 800, Y: 600}, 800, 600)
	if got != (sim.Vec2{}) {
		t.Fatalf("a world no larger than the screen should not scroll, got %v", got)
	}
	got = CameraOffset(sim.Vec2{X: 300, Y: 200}, sim.Vec2{X: 400, Y: 300}, 800, 600)
	if got != (sim.Vec2{}) {
		t.Fatalf("a world smaller than the screen should pin to the origin, got %v", got)
	}
}

func TestInputHeading(t *testing.T) {
	if _, ok := InputHeading(0, 0); ok {
		t.Fatal("no keys held should not produce a heading")
	}
	cases := []struct {
		dx, dy float64
		want   float64
	}{
		{1, 0, 0},
		{0, 1, math.Pi / 2},
		{-1, 0, math.Pi},
		{0, -1, -math.Pi / 2},
		{1, 1, math.Pi / 4},
	}
	for _, tc := range cases {
		h, ok := InputHeading(tc.dx, tc.dy)
		if !ok || math.Abs(h-tc.want) > 1e-9 {
			t.Fatalf("InputHeading(%v,%v) = %.3f, want %.3f", tc.dx, tc.dy, h, tc.want)
		}
	}
}

func TestStateColors_CoverEveryState(t *testing.T) {
	for s := sim.StateSpawning; s <= sim.StateHunting; s++ {
		if _, ok := stateColors[s]; !ok {
			t.Fatalf("no colour for state %s", s)
		}
	}
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := New(config.Default(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestUpdateSpeech_BarksOnStateChange(t *testing.T) {
	g := newTestGame(t)
	rng := rand.New(rand.NewSource(1))

	g.UpdateSpeech(rng, sim.Outcome{From: sim.StateExploring, To: sim.StateExploring})
	if len(g.speechBubbles) != 0 {
		t.Fatal("no state change should not bark")
	}
	g.UpdateSpeech(rng, sim.Outcome{From: sim.StateSpawning, To: sim.StateExploring})
	if len(g.speechBubbles) != 1 || g.speechBubbles[0].text != "Online." {
		t.Fatalf("expected the spawn bark, got %+v", g.speechBubbles)
	}
	for i := 0; i < speechLifetime; i++ {
		g.UpdateSpeech(rng, sim.Outcome{})
	}
	if len(g.speechBubbles) != 0 {
		t.Fatalf("bubbles should expire after %d ticks", speechLifetime)
	}
}

func TestUpdateSpeech_CooldownExceptPursuit(t *testing.T) {
	g := newTestGame(t)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		g.sim.Tick(g.cfg.Derived.Step)
	}

	g.UpdateSpeech(rng, sim.Outcome{From: sim.StateExploring, To: sim.StateNavigating})
	g.UpdateSpeech(rng, sim.Outcome{From: sim.StateNavigating, To: sim.StateExploring})
	if len(g.speechBubbles) != 1 {
		t.Fatalf("second calm bark should wait for the cooldown, got %d bubbles", len(g.speechBubbles))
	}
	g.UpdateSpeech(rng, sim.Outcome{From: sim.StateNavigating, To: sim.StatePursuing})
	if len(g.speechBubbles) != 2 || g.speechBubbles[1].state != sim.StatePursuing {
		t.Fatalf("spotting the player should always bark, got %+v", g.speechBubbles)
	}
	if g.speechBubbles[1].detail == "" {
		t.Fatal("pursuit bark should carry the distance")
	}
}
