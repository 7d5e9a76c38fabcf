package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Simulant/internal/sim"
)

const (
	logPanelWidth = 320
	logLineHeight = 14
	crumbSize     = 10
)

var (
	wallCol    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	floorCol   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineCol = color.RGBA{A: 255}
	crumbCol   = color.RGBA{G: 255, B: 255, A: 255}
	playerCol  = color.RGBA{R: 40, G: 80, B: 230, A: 255}
	botCol     = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	coneCol    = color.RGBA{R: 230, G: 170, B: 0, A: 255}
)

// labelFace renders the state label above the bot.
var labelFace = text.NewGoXFace(basicfont.Face7x13)

// stateColors tints the state label and thought-log markers.
var stateColors = map[sim.BehaviorState]color.RGBA{
	sim.StateSpawning:   {R: 150, G: 150, B: 150, A: 255},
	sim.StateExploring:  {R: 60, G: 170, B: 60, A: 255},
	sim.StateNavigating: {R: 40, G: 140, B: 200, A: 255},
	sim.StatePursuing:   {R: 220, G: 40, B: 40, A: 255},
	sim.StateHunting:    {R: 230, G: 140, B: 0, A: 255},
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	cam := CameraOffset(g.sim.PlayerPosition(), g.sim.Grid().WorldSize(), g.screenW, g.screenH)
	ox, oy := float32(-cam.X), float32(-cam.Y)

	g.drawTiles(screen, ox, oy)
	g.drawPath(screen, ox, oy)
	size := float32(g.sim.EntitySize())
	drawBox(screen, ox, oy, g.sim.PlayerPosition(), size, playerCol)
	drawBox(screen, ox, oy, g.sim.BotPosition(), size, botCol)
	g.drawCone(screen, ox, oy)
	g.drawStateLabel(screen, ox, oy, size)
	g.drawSpeechBubbles(screen, ox, oy, size)

	g.drawThoughtPanel(screen, g.screenW, g.screenH)

	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED  P=resume", 6, 6)
	}
	if g.statusTimer > 0 {
		ebitenutil.DebugPrintAt(screen, g.status, 6, g.screenH-18)
	}
}

func (g *Game) drawTiles(screen *ebiten.Image, ox, oy float32) {
	grid := g.sim.Grid()
	tile := float32(grid.TileSize())
	for y := 0; y < grid.Rows(); y++ {
		for x := 0; x < grid.Cols(); x++ {
			px, py := ox+float32(x)*tile, oy+float32(y)*tile
			col := floorCol
			if grid.IsWall(sim.Cell{X: x, Y: y}) {
				col = wallCol
			}
			vector.FillRect(screen, px, py, tile, tile, col, false)
			vector.StrokeRect(screen, px, py, tile, tile, 1.0, outlineCol, false)
		}
	}
}

// drawPath marks every remaining waypoint with a small square.
func (g *Game) drawPath(screen *ebiten.Image, ox, oy float32) {
	for _, wp := range g.sim.Path() {
		vector.FillRect(screen,
			ox+float32(wp.X)-crumbSize/2, oy+float32(wp.Y)-crumbSize/2,
			crumbSize, crumbSize, crumbCol, false)
	}
}

func drawBox(screen *ebiten.Image, ox, oy float32, c sim.Vec2, size float32, col color.RGBA) {
	vector.FillRect(screen, ox+float32(c.X)-size/2, oy+float32(c.Y)-size/2, size, size, col, false)
}

// drawCone draws the two bounding rays of the bot's vision cone.
func (g *Game) drawCone(screen *ebiten.Image, ox, oy float32) {
	cone := g.sim.VisionCone()
	left, right := cone.Edges()
	ax, ay := ox+float32(cone.Apex.X), oy+float32(cone.Apex.Y)
	vector.StrokeLine(screen, ax, ay, ox+float32(left.X), oy+float32(left.Y), 1.5, coneCol, false)
	vector.StrokeLine(screen, ax, ay, ox+float32(right.X), oy+float32(right.Y), 1.5, coneCol, false)
}

func (g *Game) drawStateLabel(screen *ebiten.Image, ox, oy, size float32) {
	label := g.sim.BotState().String()
	pos := g.sim.BotPosition()
	w := text.Advance(label, labelFace)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(ox)+pos.X-w/2, float64(oy)+pos.Y-float64(size)/2-16)
	op.ColorScale.ScaleWithColor(stateColors[g.sim.BotState()])
	text.Draw(screen, label, labelFace, op)
}

// drawThoughtPanel renders the bot's recent thoughts to the right of the world view.
func (g *Game) drawThoughtPanel(screen *ebiten.Image, panelX, panelH int) {
	// Panel background.
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	// Left separator line.
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	// Title bar.
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("THOUGHT LOG  [%s]  C=copy", g.sim.BotState()), panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := g.sim.Thoughts().Recent()

	// Newest at the bottom.
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const highlight = 3

	y := 20
	for i, e := range entries {
		if i >= len(entries)-highlight {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, stateColors[e.State], false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d %s", e.Tick, e.Message), panelX+12, y)
		y += logLineHeight
	}
}
