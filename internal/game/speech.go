package game

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Simulant/internal/sim"
)

// speechLifetime is how many ticks a speech bubble stays visible (~3 seconds).
const speechLifetime = 180

// speechCooldown is the minimum ticks between calm barks (~4 seconds).
// Spotting the player always speaks.
const speechCooldown = 240

// SpeechBubble holds a bark shown above the bot after a state change.
type SpeechBubble struct {
	text   string
	detail string // second line of context
	state  sim.BehaviorState
	age    int
}

// contextualPhrase picks a bark for a transition into to. ok is false for
// transitions the bot keeps quiet about.
func contextualPhrase(rng *rand.Rand, s *sim.Simulation, out sim.Outcome) (text, detail string, ok bool) {
	st := s.Snapshot()
	bot := st.Bot
	tile := s.Grid().TileSize()

	switch out.To {
	case sim.StatePursuing:
		texts := []string{"There you are!", "Got eyes on you!", "Contact!", "Stop right there!"}
		dist := bot.Pos.DistanceTo(out.Player)
		return texts[rng.Intn(len(texts))], fmt.Sprintf("%.1f tiles", dist/tile), true

	case sim.StateHunting:
		texts := []string{"Where'd you go?", "Lost visual.", "Checking last position."}
		c := s.Grid().WorldToCell(bot.LastSeen)
		return texts[rng.Intn(len(texts))], fmt.Sprintf("last seen (%d,%d)", c.X, c.Y), true

	case sim.StateNavigating:
		c := s.Grid().WorldToCell(bot.Target)
		texts := []string{"Moving out.", "Checking over there.", "On my way."}
		return texts[rng.Intn(len(texts))], fmt.Sprintf("to (%d,%d) %d wp", c.X, c.Y, len(bot.Path)), true

	case sim.StateExploring:
		if out.From == sim.StateSpawning {
			return "Online.", "", true
		}
		if out.From == sim.StateHunting {
			return "Must have been nothing.", "", true
		}
		texts := []string{"Clear.", "All quiet.", "Nothing here."}
		return texts[rng.Intn(len(texts))], "", true
	}
	return "", "", false
}

// UpdateSpeech ages bubbles and emits a new one when the outcome changed the
// bot's state.
func (g *Game) UpdateSpeech(rng *rand.Rand, out sim.Outcome) {
	kept := g.speechBubbles[:0]
	for _, b := range g.speechBubbles {
		b.age++
		if b.age < speechLifetime {
			kept = append(kept, b)
		}
	}
	g.speechBubbles = kept

	if !out.Changed() {
		return
	}
	tick := g.sim.Snapshot().Tick
	if out.To != sim.StatePursuing && g.lastSpeechTick > 0 && tick-g.lastSpeechTick < speechCooldown {
		return
	}
	text, detail, ok := contextualPhrase(rng, g.sim, out)
	if !ok {
		return
	}
	g.lastSpeechTick = tick
	g.speechBubbles = append(g.speechBubbles, &SpeechBubble{
		text:   text,
		detail: detail,
		state:  out.To,
	})
}

// drawSpeechBubbles renders active bubbles stacked above the bot, newest lowest.
func (g *Game) drawSpeechBubbles(screen *ebiten.Image, ox, oy, size float32) {
	const charW = 6
	const lineH = 14
	const padX = 5
	const padY = 3

	pos := g.sim.BotPosition()
	sx := ox + float32(pos.X)
	// Leave room for the state label.
	nextY := oy + float32(pos.Y) - size/2 - 22

	for i := len(g.speechBubbles) - 1; i >= 0; i-- {
		b := g.speechBubbles[i]
		progress := float64(b.age) / float64(speechLifetime)
		alpha := float32(1.0)
		if progress > 0.70 {
			alpha = float32(1.0 - (progress-0.70)/0.30)
		}
		if alpha < 0.05 {
			continue
		}

		lines := 1
		maxLen := len(b.text)
		if b.detail != "" {
			lines = 2
			if len(b.detail) > maxLen {
				maxLen = len(b.detail)
			}
		}
		bgW := float32(maxLen*charW + padX*2)
		bgH := float32(lines*lineH + padY*2)
		bgX := sx - bgW/2
		bgY := nextY - bgH
		nextY = bgY - 2

		vector.FillRect(screen, bgX, bgY, bgW, bgH, color.RGBA{R: 20, G: 22, B: 20, A: uint8(210 * alpha)}, false)

		// Accent stripe in the state colour.
		accent := stateColors[b.state]
		accent.A = uint8(220 * alpha)
		vector.FillRect(screen, bgX, bgY, 3, bgH, accent, false)
		vector.StrokeRect(screen, bgX, bgY, bgW, bgH, 0.5,
			color.RGBA{R: 100, G: 100, B: 100, A: uint8(80 * alpha)}, false)

		textX := int(bgX + float32(padX) + 3)
		textY := int(bgY + float32(padY))
		ebitenutil.DebugPrintAt(screen, b.text, textX, textY)
		if b.detail != "" {
			ebitenutil.DebugPrintAt(screen, b.detail, textX, textY+lineH)
		}
	}
}
