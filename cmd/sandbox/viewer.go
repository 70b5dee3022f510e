package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Companion-Sense/internal/companion"
	"github.com/Garsondee/Companion-Sense/internal/geom"
	"github.com/Garsondee/Companion-Sense/internal/sandbox"
)

const (
	borderWidth   = 16
	pixelsPerUnit = 18
	logPanelWidth = 420
	lineHeight    = 14
	coneSteps     = 24
)

var stateColors = map[companion.State]color.RGBA{
	companion.StateIdle:    {R: 150, G: 150, B: 150, A: 255},
	companion.StateFollow:  {R: 90, G: 170, B: 255, A: 255},
	companion.StateCombat:  {R: 255, G: 90, B: 70, A: 255},
	companion.StateExplore: {R: 120, G: 220, B: 120, A: 255},
	companion.StateSupport: {R: 255, G: 200, B: 60, A: 255},
}

// commandKeys maps the number row to player orders for the selected companion.
var commandKeys = []struct {
	key ebiten.Key
	cmd companion.Command
}{
	{ebiten.Key1, companion.CommandFollow},
	{ebiten.Key2, companion.CommandStay},
	{ebiten.Key3, companion.CommandAttack},
	{ebiten.Key4, companion.CommandDefend},
	{ebiten.Key5, companion.CommandMoveTo},
	{ebiten.Key6, companion.CommandScout},
	{ebiten.Key7, companion.CommandFlank},
	{ebiten.Key8, companion.CommandSupport},
	{ebiten.Key9, companion.CommandRetreat},
}

// Viewer draws a sandbox.Sim top-down: X to the right, Z downward.
type Viewer struct {
	sim      *sandbox.Sim
	face     text.Face
	width    int
	height   int
	fieldW   int
	fieldH   int
	prevKeys map[ebiten.Key]bool

	// Offscreen buffer for vision cones so overlaps don't add up.
	visionBuf *ebiten.Image

	selected  int
	simSpeed  float64
	tickAccum float64
	status    string
}

// NewViewer wraps sim in an ebiten.Game.
func NewViewer(sim *sandbox.Sim) *Viewer {
	fw := int(sim.Width * pixelsPerUnit)
	fh := int(sim.Depth * pixelsPerUnit)
	return &Viewer{
		sim:       sim,
		face:      text.NewGoXFace(basicfont.Face7x13),
		width:     borderWidth + fw + borderWidth + logPanelWidth,
		height:    max(borderWidth+fh+borderWidth, 480),
		fieldW:    fw,
		fieldH:    fh,
		prevKeys:  make(map[ebiten.Key]bool),
		visionBuf: ebiten.NewImage(fw, fh),
		simSpeed:  1,
	}
}

func (v *Viewer) toScreen(p geom.Vec3) (float32, float32) {
	return float32(borderWidth + p.X*pixelsPerUnit), float32(borderWidth + p.Z*pixelsPerUnit)
}

func (v *Viewer) toWorld(x, y int) geom.Vec3 {
	return geom.V(float64(x-borderWidth)/pixelsPerUnit, 0, float64(y-borderWidth)/pixelsPerUnit)
}

func (v *Viewer) Update() error {
	v.handleInput()
	if v.simSpeed <= 0 {
		return nil
	}
	// The sim runs at its own tick rate regardless of frame rate.
	v.tickAccum += v.simSpeed * float64(v.sim.Tuning.Host.TickRateHz) / float64(ebiten.TPS())
	for v.tickAccum >= 1 {
		v.tickAccum--
		v.sim.Step()
	}
	return nil
}

func (v *Viewer) pressed(k ebiten.Key, current map[ebiten.Key]bool) bool {
	current[k] = ebiten.IsKeyPressed(k)
	return current[k] && !v.prevKeys[k]
}

// handleInput processes edge-triggered keypresses.
func (v *Viewer) handleInput() {
	current := map[ebiten.Key]bool{}

	if v.pressed(ebiten.KeyP, current) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if v.pressed(ebiten.KeyComma, current) && v.simSpeed > 0.25 {
		v.simSpeed /= 2
	}
	if v.pressed(ebiten.KeyPeriod, current) && v.simSpeed < 8 {
		v.simSpeed = max(v.simSpeed*2, 0.25)
	}
	if v.pressed(ebiten.KeyTab, current) && len(v.sim.Companions) > 0 {
		v.selected = (v.selected + 1) % len(v.sim.Companions)
	}
	if v.pressed(ebiten.KeyC, current) {
		if err := clipboard.WriteAll(v.sim.Summary() + "\n" + v.sim.SimLog.Format()); err != nil {
			v.status = "clipboard: " + err.Error()
		} else {
			v.status = "summary copied"
		}
	}
	if len(v.sim.Companions) > 0 {
		c := v.sim.Companions[v.selected]
		for _, ck := range commandKeys {
			if !v.pressed(ck.key, current) {
				continue
			}
			mx, my := ebiten.CursorPosition()
			args := v.sim.ArgsFor(c.ID, ck.cmd, v.toWorld(mx, my))
			if v.sim.Command(c.ID, ck.cmd, args) {
				v.status = fmt.Sprintf("%s: %s", c.Label, ck.cmd)
			} else {
				v.status = fmt.Sprintf("%s refused %s (tier %d)", c.Label, ck.cmd, c.Agent.Tier())
			}
		}
	}

	v.prevKeys = current
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})
	ox, oy := float32(borderWidth), float32(borderWidth)
	vector.FillRect(screen, ox, oy, float32(v.fieldW), float32(v.fieldH), color.RGBA{R: 28, G: 42, B: 28, A: 255}, false)
	v.drawGrid(screen)
	v.drawObstacles(screen)
	v.drawVisionCones(screen)
	v.drawHostiles(screen)
	v.drawProtectee(screen)
	v.drawCompanions(screen)
	vector.StrokeRect(screen, ox-1, oy-1, float32(v.fieldW)+2, float32(v.fieldH)+2, 2, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)
	v.drawPanel(screen)
}

func (v *Viewer) drawGrid(screen *ebiten.Image) {
	c := color.RGBA{R: 40, G: 56, B: 40, A: 255}
	for x := 0.0; x <= v.sim.Width; x += 5 {
		x0, y0 := v.toScreen(geom.V(x, 0, 0))
		_, y1 := v.toScreen(geom.V(x, 0, v.sim.Depth))
		vector.StrokeLine(screen, x0, y0, x0, y1, 1, c, false)
	}
	for z := 0.0; z <= v.sim.Depth; z += 5 {
		x0, y0 := v.toScreen(geom.V(0, 0, z))
		x1, _ := v.toScreen(geom.V(v.sim.Width, 0, z))
		vector.StrokeLine(screen, x0, y0, x1, y0, 1, c, false)
	}
}

func (v *Viewer) drawObstacles(screen *ebiten.Image) {
	for _, b := range v.sim.Obstacles() {
		x0, y0 := v.toScreen(b.Min)
		x1, y1 := v.toScreen(b.Max)
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, color.RGBA{R: 90, G: 84, B: 72, A: 255}, false)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, color.RGBA{R: 130, G: 120, B: 100, A: 255}, false)
	}
}

// drawVisionCones renders every companion's tier cone into visionBuf, then
// composites it once with a low opacity.
func (v *Viewer) drawVisionCones(screen *ebiten.Image) {
	buf := v.visionBuf
	buf.Clear()
	for _, c := range v.sim.Companions {
		pc, ok := companion.PerceptionFor(c.Record.Tier(), c.Agent.Params())
		if !ok {
			continue
		}
		origin := c.Avatar.Position()
		heading := c.Avatar.Forward().HeadingY()
		half := pc.Angle / 2 * math.Pi / 180

		var path vector.Path
		sx, sy := float32(origin.X*pixelsPerUnit), float32(origin.Z*pixelsPerUnit)
		path.MoveTo(sx, sy)
		for i := 0; i <= coneSteps; i++ {
			a := heading - half + 2*half*float64(i)/coneSteps
			end := origin.Add(geom.V(math.Cos(a), 0, math.Sin(a)).Scale(pc.Range))
			end = v.sim.Grid.ClearSegment(origin, end)
			path.LineTo(float32(end.X*pixelsPerUnit), float32(end.Z*pixelsPerUnit))
		}
		path.Close()
		vector.FillPath(buf, &path, &vector.FillOptions{}, &vector.DrawPathOptions{AntiAlias: true})
	}
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(borderWidth, borderWidth)
	opts.ColorScale.ScaleWithColor(color.RGBA{R: 255, G: 240, B: 180, A: 255})
	opts.ColorScale.ScaleAlpha(0.12)
	screen.DrawImage(buf, opts)
}

func (v *Viewer) drawHostiles(screen *ebiten.Image) {
	for _, h := range v.sim.World.Hostiles() {
		x, y := v.toScreen(h.Pos)
		if h.Destroyed {
			vector.StrokeLine(screen, x-4, y-4, x+4, y+4, 2, color.RGBA{R: 90, G: 40, B: 40, A: 255}, false)
			vector.StrokeLine(screen, x-4, y+4, x+4, y-4, 2, color.RGBA{R: 90, G: 40, B: 40, A: 255}, false)
			continue
		}
		col := color.RGBA{R: 200, G: 60, B: 60, A: 255}
		if h.Behavior == companion.HostileAttack {
			col = color.RGBA{R: 255, G: 30, B: 30, A: 255}
		}
		vector.FillCircle(screen, x, y, 6, col, true)
		drawHealthBar(screen, x, y-11, h.HealthFraction())
		v.label(screen, fmt.Sprintf("H%d %s", h.ID, h.Behavior), x+8, y-6, color.RGBA{R: 220, G: 150, B: 150, A: 255})
	}
}

func (v *Viewer) drawProtectee(screen *ebiten.Image) {
	p := v.sim.Player
	if !p.Present {
		return
	}
	x, y := v.toScreen(p.Pos)
	vector.FillCircle(screen, x, y, 7, color.RGBA{R: 240, G: 240, B: 240, A: 255}, true)
	fx, fy := v.toScreen(p.Pos.Add(p.Fwd.Scale(1.2)))
	vector.StrokeLine(screen, x, y, fx, fy, 2, color.RGBA{R: 240, G: 240, B: 240, A: 255}, true)
	drawHealthBar(screen, x, y-12, p.HealthFraction())
}

func (v *Viewer) drawCompanions(screen *ebiten.Image) {
	for i, c := range v.sim.Companions {
		pos := c.Avatar.Position()
		x, y := v.toScreen(pos)
		col := stateColors[c.Agent.State()]

		if dest, ok := c.Avatar.Destination(); ok {
			dx, dy := v.toScreen(dest)
			vector.StrokeLine(screen, x, y, dx, dy, 1, color.RGBA{R: col.R, G: col.G, B: col.B, A: 90}, false)
		}
		if slot, ok := c.Agent.TacticalSlot(); ok {
			sx, sy := v.toScreen(slot)
			vector.StrokeCircle(screen, sx, sy, 4, 1, color.RGBA{R: 255, G: 255, B: 120, A: 200}, true)
		}
		if id, ok := c.Agent.Target(); ok {
			if h, found := v.sim.World.Hostile(id); found {
				tx, ty := v.toScreen(h.Pos)
				vector.StrokeLine(screen, x, y, tx, ty, 1, color.RGBA{R: 255, G: 80, B: 80, A: 140}, false)
			}
		}

		r := float32(6)
		if c.Body.IsDodging() {
			r = 4
		}
		vector.FillCircle(screen, x, y, r, col, true)
		if i == v.selected {
			vector.StrokeCircle(screen, x, y, 10, 1.5, color.RGBA{R: 255, G: 255, B: 255, A: 220}, true)
		}
		fx, fy := v.toScreen(pos.Add(c.Avatar.Forward().Scale(1)))
		vector.StrokeLine(screen, x, y, fx, fy, 2, col, true)
		v.label(screen, fmt.Sprintf("%s t%d", c.Label, c.Record.Tier()), x+8, y+2, col)
	}
}

func drawHealthBar(screen *ebiten.Image, cx, y float32, frac float64) {
	const w = 16
	vector.FillRect(screen, cx-w/2, y, w, 3, color.RGBA{R: 60, G: 20, B: 20, A: 255}, false)
	vector.FillRect(screen, cx-w/2, y, float32(w*geom.Clamp(frac, 0, 1)), 3, color.RGBA{R: 80, G: 220, B: 80, A: 255}, false)
}

func (v *Viewer) label(screen *ebiten.Image, s string, x, y float32, col color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(col)
	text.Draw(screen, s, v.face, op)
}

// drawPanel renders the selected companion, key help and the thought log on
// the right side of the window.
func (v *Viewer) drawPanel(screen *ebiten.Image) {
	px := float32(borderWidth + v.fieldW + borderWidth)
	vector.FillRect(screen, px, 0, logPanelWidth, float32(v.height), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, px, 0, px, float32(v.height), 1, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	white := color.RGBA{R: 230, G: 230, B: 230, A: 255}
	dim := color.RGBA{R: 140, G: 150, B: 140, A: 255}
	x := px + 8
	y := float32(6)
	line := func(s string, col color.Color) {
		v.label(screen, s, x, y, col)
		y += lineHeight
	}

	speed := fmt.Sprintf("%.2gx", v.simSpeed)
	if v.simSpeed == 0 {
		speed = "PAUSED"
	}
	line(fmt.Sprintf("T=%d  t=%.1fs  speed=%s", v.sim.CurrentTick(), v.sim.Time(), speed), white)
	line(fmt.Sprintf("hostiles %d/%d  protectee %.0f%%", v.sim.World.Alive(), len(v.sim.World.Hostiles()), v.sim.Player.HealthFraction()*100), white)

	if len(v.sim.Companions) > 0 {
		c := v.sim.Companions[v.selected]
		y += 4
		line(fmt.Sprintf("[%s] %s  trust=%d tier=%d", c.Label, c.Record.Role(), c.Record.Trust(), c.Record.Tier()), stateColors[c.Agent.State()])
		running, crouching := c.Agent.MovementStyle()
		line(fmt.Sprintf("state=%s run=%v crouch=%v tactic=%s", c.Agent.State(), running, crouching, companion.TacticFor(c.Agent.Tier())), dim)
		avail := ""
		for i, ck := range commandKeys {
			mark := "-"
			if c.Agent.CanExecute(ck.cmd) {
				mark = "+"
			}
			avail += fmt.Sprintf("%d%s%s ", i+1, mark, ck.cmd)
			if i == 4 {
				line(avail, dim)
				avail = ""
			}
		}
		line(avail, dim)
	}
	line("Tab=select P=pause ,/.=speed C=copy 5=move_to cursor", dim)
	if v.status != "" {
		line(v.status, color.RGBA{R: 255, G: 220, B: 120, A: 255})
	}

	y += 6
	vector.StrokeLine(screen, px, y, px+logPanelWidth, y, 1, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)
	y += 4
	line("THOUGHT LOG", white)

	entries := v.sim.Thoughts.Recent()
	maxVisible := int((float32(v.height) - y) / lineHeight)
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	for _, e := range entries {
		line(fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message), stateColors[e.State])
	}
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}
