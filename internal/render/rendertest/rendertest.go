// Package rendertest provides in-memory render backends for tests.
package rendertest

import (
	"image"
	"image/color"
	"strings"

	"chosenoffset.com/topdown/internal/render"
)

func init() {
	if render.NewGeoM == nil {
		render.NewGeoM = func() render.GeoM { return newGeoM() }
	}
}

// GeoM records the scale and translation applied to it.
type GeoM struct {
	SX, SY float64
	TX, TY float64
}

func newGeoM() *GeoM {
	return &GeoM{SX: 1, SY: 1}
}

func (g *GeoM) Translate(tx, ty float64) {
	g.TX += tx
	g.TY += ty
}

func (g *GeoM) Scale(sx, sy float64) {
	g.SX *= sx
	g.SY *= sy
	g.TX *= sx
	g.TY *= sy
}

// Renderer records what was drawn instead of drawing it.
type Renderer struct {
	Texts   []string
	Circles int
	Rects   int
	Lines   int
}

// Reset forgets everything drawn so far.
func (r *Renderer) Reset() {
	*r = Renderer{}
}

// HasText reports whether any drawn string contains s.
func (r *Renderer) HasText(s string) bool {
	for _, t := range r.Texts {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

func (r *Renderer) NewImage(width, height int) render.Image {
	return NewImage(width, height)
}

func (r *Renderer) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	r.Circles++
}

func (r *Renderer) StrokeCircle(dst render.Image, x, y, radius float32, strokeWidth float32, clr color.Color) {
	r.Circles++
}

func (r *Renderer) FillRect(dst render.Image, x, y, width, height float32, clr color.Color) {
	r.Rects++
}

func (r *Renderer) StrokeLine(dst render.Image, x0, y0, x1, y1 float32, strokeWidth float32, clr color.Color) {
	r.Lines++
}

func (r *Renderer) DrawText(dst render.Image, text string, x, y int, clr color.Color, scale float64) {
	r.Texts = append(r.Texts, text)
}

// MeasureText uses the metrics of the 7x13 face the real backend draws with.
func (r *Renderer) MeasureText(text string, scale float64) (width, height int) {
	return int(float64(7*len(text)) * scale), int(13 * scale)
}

// Image is a size-only surface.
type Image struct {
	w, h    int
	Fills   int
	Clears  int
	Draws   int
	LastOps *render.DrawImageOptions // Options of the latest DrawImage
}

// NewImage returns an empty image of the given size.
func NewImage(width, height int) *Image {
	return &Image{w: width, h: height}
}

func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.w, i.h)
}

func (i *Image) Size() (int, int) {
	return i.w, i.h
}

func (i *Image) Fill(clr color.Color) {
	i.Fills++
}

func (i *Image) Clear() {
	i.Clears++
}

func (i *Image) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	i.Draws++
	i.LastOps = opts
}

func (i *Image) Dispose() {}

// Input is a scripted InputManager. Keys in Just are reported as just pressed
// until Next is called.
type Input struct {
	Held    map[render.Key]bool
	Just    map[render.Key]bool
	Buttons map[render.MouseButton]bool
	X, Y    int
}

// NewInput returns an input with nothing pressed.
func NewInput() *Input {
	return &Input{
		Held:    map[render.Key]bool{},
		Just:    map[render.Key]bool{},
		Buttons: map[render.MouseButton]bool{},
	}
}

// Tap marks keys as just pressed for the next update.
func (in *Input) Tap(keys ...render.Key) {
	for _, k := range keys {
		in.Just[k] = true
	}
}

// Next clears just-pressed keys, as a new frame would.
func (in *Input) Next() {
	in.Just = map[render.Key]bool{}
}

func (in *Input) IsKeyPressed(key render.Key) bool {
	return in.Held[key] || in.Just[key]
}

func (in *Input) IsKeyJustPressed(key render.Key) bool {
	return in.Just[key]
}

func (in *Input) GetCursorPosition() (int, int) {
	return in.X, in.Y
}

func (in *Input) IsMouseButtonPressed(button render.MouseButton) bool {
	return in.Buttons[button]
}
