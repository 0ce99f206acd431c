package game

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/simulation"
)

var (
	backgroundColor = color.RGBA{18, 18, 24, 255}
	floorColor      = color.RGBA{34, 36, 44, 255}
	gridColor       = color.RGBA{44, 46, 56, 255}
	playerColor     = color.RGBA{90, 180, 255, 255}
	deadColor       = color.RGBA{90, 90, 90, 255}
	enemyColor      = color.RGBA{230, 80, 70, 255}
	chaseColor      = color.RGBA{255, 140, 60, 255}
	bulletColor     = color.RGBA{255, 240, 160, 255}
	grenadeColor    = color.RGBA{120, 200, 90, 255}
	replayTint      = color.RGBA{0, 0, 0, 70}
)

const gridSpacing = 80.0

// Draw renders the game to the screen.
func (g *Game) Draw(screen render.Image) {
	screen.Fill(backgroundColor)

	g.drawFloor(screen)
	g.drawEffects(screen, false)
	g.drawEnemies(screen)
	g.drawProjectiles(screen)
	g.drawPlayer(screen)
	g.drawEffects(screen, true)

	if g.Session.IsReplaying() || g.Session.IsEnding() {
		w, h := screen.Size()
		g.Renderer.FillRect(screen, 0, 0, float32(w), float32(h), replayTint)
	}

	g.GameHUD.Draw(screen, g.Status())
	g.drawMinimap(screen)
	g.drawUI(screen)
}

const (
	minimapWidth  = 160
	minimapMargin = 10
)

// drawMinimap renders the whole arena into an offscreen image and blits it
// to the bottom-right corner.
func (g *Game) drawMinimap(screen render.Image) {
	arena := g.World.Config().Arena
	w := minimapWidth
	h := int(float64(w) * arena.Height / arena.Width)
	if h <= 0 {
		return
	}
	if g.Minimap == nil || needsResize(g.Minimap, w, h) {
		if g.Minimap != nil {
			g.Minimap.Dispose()
		}
		g.Minimap = g.Renderer.NewImage(w, h)
	}

	mm := g.Minimap
	mm.Clear()
	g.Renderer.FillRect(mm, 0, 0, float32(w), float32(h), color.RGBA{0, 0, 0, 160})
	scale := float64(w) / arena.Width
	dot := func(p mgl64.Vec2, r float32, clr color.Color) {
		g.Renderer.FillCircle(mm, float32(p.X()*scale), float32(p.Y()*scale), r, clr)
	}
	for _, e := range g.World.Enemies {
		if e.Alive {
			dot(e.Pos, 2, enemyColor)
		}
	}
	dot(g.World.Player.Pos, 3, playerColor)

	// Viewport outline
	x0, y0 := float32(g.Camera.X*scale), float32(g.Camera.Y*scale)
	x1, y1 := x0+float32(float64(g.ScreenWidth)*scale), y0+float32(float64(g.ScreenHeight)*scale)
	g.Renderer.StrokeLine(mm, x0, y0, x1, y0, 1, color.White)
	g.Renderer.StrokeLine(mm, x1, y0, x1, y1, 1, color.White)
	g.Renderer.StrokeLine(mm, x1, y1, x0, y1, 1, color.White)
	g.Renderer.StrokeLine(mm, x0, y1, x0, y0, 1, color.White)

	sw, sh := screen.Size()
	s := minimapScale(sw, w)
	geo := render.NewGeoM()
	geo.Scale(s, s)
	geo.Translate(float64(sw)-float64(w)*s-minimapMargin, float64(sh)-float64(h)*s-minimapMargin-30)
	screen.DrawImage(mm, &render.DrawImageOptions{GeoM: geo})
}

// minimapScale shrinks the minimap so it never takes more than a quarter of
// the screen width.
func minimapScale(screenWidth, mapWidth int) float64 {
	if limit := screenWidth / 4; limit < mapWidth && limit > 0 {
		return float64(limit) / float64(mapWidth)
	}
	return 1
}

func needsResize(img render.Image, w, h int) bool {
	bounds := img.Bounds()
	return bounds.Dx() != w || bounds.Dy() != h
}

// toScreen converts arena coordinates to screen coordinates.
func (g *Game) toScreen(p mgl64.Vec2) (float32, float32) {
	return float32(p.X() - g.Camera.X), float32(p.Y() - g.Camera.Y)
}

func (g *Game) drawFloor(screen render.Image) {
	arena := g.World.Config().Arena
	x, y := g.toScreen(mgl64.Vec2{})
	g.Renderer.FillRect(screen, x, y, float32(arena.Width), float32(arena.Height), floorColor)

	for gx := 0.0; gx <= arena.Width; gx += gridSpacing {
		x0, y0 := g.toScreen(mgl64.Vec2{gx, 0})
		x1, y1 := g.toScreen(mgl64.Vec2{gx, arena.Height})
		g.Renderer.StrokeLine(screen, x0, y0, x1, y1, 1, gridColor)
	}
	for gy := 0.0; gy <= arena.Height; gy += gridSpacing {
		x0, y0 := g.toScreen(mgl64.Vec2{0, gy})
		x1, y1 := g.toScreen(mgl64.Vec2{arena.Width, gy})
		g.Renderer.StrokeLine(screen, x0, y0, x1, y1, 1, gridColor)
	}
}

func (g *Game) drawPlayer(screen render.Image) {
	p := g.World.Player
	radius := g.World.Config().Player.Radius
	x, y := g.toScreen(p.Pos)

	clr := playerColor
	if !p.Alive {
		clr = deadColor
	}
	g.Renderer.FillCircle(screen, x, y, float32(radius), clr)

	// Gun barrel. The model scale flips it to the other hand when aiming left.
	facing := mgl64.Vec2{math.Cos(p.Rotation), math.Sin(p.Rotation)}
	side := mgl64.Vec2{-facing.Y(), facing.X()}.Mul(radius * 0.5 * p.Scale.Y())
	base := p.Pos.Add(side)
	tip := base.Add(facing.Mul(radius * 1.6 * p.Scale.X()))
	bx, by := g.toScreen(base)
	tx, ty := g.toScreen(tip)
	g.Renderer.StrokeLine(screen, bx, by, tx, ty, 4, color.White)
}

func (g *Game) drawEnemies(screen render.Image) {
	radius := float32(g.World.Config().Enemies.Radius)
	for _, e := range g.World.Enemies {
		if !e.Alive {
			continue
		}
		x, y := g.toScreen(e.Pos)
		clr := enemyColor
		if e.State == simulation.EnemyChase {
			clr = chaseColor
		}
		g.Renderer.FillCircle(screen, x, y, radius, clr)

		eye := e.Pos.Add(mgl64.Vec2{math.Cos(e.Rotation), math.Sin(e.Rotation)}.Mul(float64(radius) * 0.6))
		ex, ey := g.toScreen(eye)
		g.Renderer.FillCircle(screen, ex, ey, 3, color.Black)
	}
}

func (g *Game) drawProjectiles(screen render.Image) {
	for _, b := range g.World.Bullets {
		x, y := g.toScreen(b.Pos)
		tail := b.Pos.Sub(b.Vel.Mul(0.02))
		tx, ty := g.toScreen(tail)
		g.Renderer.StrokeLine(screen, tx, ty, x, y, 2, bulletColor)
	}
	for _, gr := range g.World.Grenades {
		x, y := g.toScreen(gr.Pos)
		g.Renderer.FillCircle(screen, x, y, 6, grenadeColor)
	}
}

// drawEffects draws either the explosion rings (overlay) or the small markers
// under the actors.
func (g *Game) drawEffects(screen render.Image, overlay bool) {
	for _, fx := range g.World.Effects {
		isBlast := fx.Kind == simulation.EventExplosion
		if isBlast != overlay {
			continue
		}
		fade := uint8(255 * math.Max(0, math.Min(1, fx.TimeLeft/simulation.EffectDuration)))
		x, y := g.toScreen(fx.Pos)
		switch fx.Kind {
		case simulation.EventExplosion:
			grow := float32(fx.Radius * (1 - fx.TimeLeft/simulation.EffectDuration*0.5))
			g.Renderer.StrokeCircle(screen, x, y, grow, 4, color.NRGBA{255, 160, 60, fade})
		case simulation.EventShot:
			g.Renderer.FillCircle(screen, x, y, float32(fx.Radius), color.NRGBA{255, 230, 120, fade})
		case simulation.EventEnemyKilled, simulation.EventPlayerDied:
			g.Renderer.StrokeCircle(screen, x, y, float32(fx.Radius)*3, 2, color.NRGBA{200, 40, 40, fade})
		default:
			g.Renderer.FillCircle(screen, x, y, float32(fx.Radius)/2, color.NRGBA{255, 255, 255, fade})
		}
	}
}

// drawUI draws transient messages and the pause banner.
func (g *Game) drawUI(screen render.Image) {
	y := 70
	for _, msg := range g.Messages {
		alpha := uint8(255 * math.Min(1, msg.TimeLeft/msg.MaxTime*2))
		g.Renderer.DrawText(screen, msg.Text, 10, y, color.NRGBA{255, 255, 255, alpha}, 1)
		y += 18
	}

	if g.Paused {
		label := "PAUSED"
		tw, _ := g.Renderer.MeasureText(label, 2)
		g.Renderer.DrawText(screen, label, (g.ScreenWidth-tw)/2, g.ScreenHeight/2, color.White, 2)
	}
}
