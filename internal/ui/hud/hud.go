// Package hud draws the heads-up display: live player stats and the replay
// overlay with recording clock, playback position and speed.
package hud

import (
	"fmt"
	"image/color"
	"math"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/replay"
)

// HUDConfig defines what to display in the HUD
type HUDConfig struct {
	ShowStats    bool    `json:"show_stats"`    // Show health and kills
	ShowReplay   bool    `json:"show_replay"`   // Show the replay overlay
	ShowControls bool    `json:"show_controls"` // Show the key help line
	Opacity      float64 `json:"opacity"`       // Background opacity (0-1)
}

// DefaultConfig returns a sensible default HUD configuration
func DefaultConfig() *HUDConfig {
	return &HUDConfig{
		ShowStats:    true,
		ShowReplay:   true,
		ShowControls: true,
		Opacity:      0.7,
	}
}

// Status is the data the HUD shows for one frame.
type Status struct {
	State  replay.State
	Paused bool

	RecordingTime float64
	MaxRecording  float64
	PlaybackTime  float64
	Duration      float64
	Speed         float64
	HasReplay     bool

	Health    float64
	MaxHealth float64
	Kills     int
}

// HUD manages the heads-up display
type HUD struct {
	config       *HUDConfig
	renderer     render.Renderer
	screenWidth  int
	screenHeight int

	panelWidth int
}

// New creates a new HUD with the given configuration
func New(config *HUDConfig, r render.Renderer, screenWidth, screenHeight int) *HUD {
	if config == nil {
		config = DefaultConfig()
	}
	return &HUD{
		config:       config,
		renderer:     r,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		panelWidth:   220,
	}
}

// SetScreenSize updates the screen dimensions
func (h *HUD) SetScreenSize(width, height int) {
	h.screenWidth = width
	h.screenHeight = height
}

// Draw renders the HUD to the screen
func (h *HUD) Draw(screen render.Image, st Status) {
	if h.config.ShowStats && st.State != replay.StatePlaying && st.State != replay.StateEnding {
		h.drawStats(screen, st)
	}
	if h.config.ShowReplay {
		h.drawReplay(screen, st)
	}
	if h.config.ShowControls {
		h.drawControls(screen, st)
	}
}

func (h *HUD) panelColor() color.Color {
	return color.RGBA{0, 0, 0, uint8(255 * clamp01(h.config.Opacity))}
}

func (h *HUD) drawStats(screen render.Image, st Status) {
	x, y := 10, 10
	h.renderer.FillRect(screen, float32(x), float32(y), float32(h.panelWidth), 48, h.panelColor())

	// HP bar
	barWidth := h.panelWidth - 16
	h.renderer.FillRect(screen, float32(x+8), float32(y+8), float32(barWidth), 10, color.RGBA{60, 20, 20, 255})
	if st.MaxHealth > 0 {
		fill := float64(barWidth) * clamp01(st.Health/st.MaxHealth)
		h.renderer.FillRect(screen, float32(x+8), float32(y+8), float32(fill), 10, hpColor(st.Health/st.MaxHealth))
	}

	h.renderer.DrawText(screen, fmt.Sprintf("HP %.0f/%.0f  Kills %d", st.Health, st.MaxHealth, st.Kills), x+8, y+26, color.RGBA{230, 230, 230, 255}, 1)
}

func hpColor(ratio float64) color.Color {
	switch {
	case ratio > 0.6:
		return color.RGBA{80, 200, 80, 255}
	case ratio > 0.3:
		return color.RGBA{220, 200, 60, 255}
	default:
		return color.RGBA{220, 60, 60, 255}
	}
}

func (h *HUD) drawReplay(screen render.Image, st Status) {
	switch st.State {
	case replay.StateRecording:
		x := h.screenWidth - h.panelWidth - 10
		h.renderer.FillRect(screen, float32(x), 10, float32(h.panelWidth), 28, h.panelColor())
		h.renderer.FillCircle(screen, float32(x+14), 24, 6, color.RGBA{230, 40, 40, 255})
		label := fmt.Sprintf("REC %s / %s", FormatClock(st.RecordingTime), FormatClock(st.MaxRecording))
		h.renderer.DrawText(screen, label, x+28, 18, color.RGBA{255, 255, 255, 255}, 1)

	case replay.StatePlaying, replay.StateEnding:
		h.drawTimeline(screen, st)

	default:
		if st.HasReplay {
			x := h.screenWidth - h.panelWidth - 10
			label := fmt.Sprintf("Replay ready (%s)", FormatClock(st.Duration))
			h.renderer.DrawText(screen, label, x, 18, color.RGBA{180, 180, 180, 255}, 1)
		}
	}
}

// drawTimeline draws the playback bar along the bottom of the screen.
func (h *HUD) drawTimeline(screen render.Image, st Status) {
	margin := 20
	y := h.screenHeight - 60
	width := h.screenWidth - 2*margin

	h.renderer.FillRect(screen, float32(margin-8), float32(y-8), float32(width+16), 52, h.panelColor())
	h.renderer.FillRect(screen, float32(margin), float32(y), float32(width), 6, color.RGBA{70, 70, 70, 255})
	fill := float64(width) * Progress(st.PlaybackTime, st.Duration)
	h.renderer.FillRect(screen, float32(margin), float32(y), float32(fill), 6, color.RGBA{90, 160, 255, 255})
	h.renderer.FillCircle(screen, float32(float64(margin)+fill), float32(y+3), 6, color.RGBA{255, 255, 255, 255})

	label := fmt.Sprintf("REPLAY %s / %s  x%s", FormatClock(st.PlaybackTime), FormatClock(st.Duration), FormatSpeed(st.Speed))
	if st.State == replay.StateEnding {
		label = "REPLAY ENDED"
	}
	h.renderer.DrawText(screen, label, margin, y+14, color.RGBA{255, 255, 255, 255}, 1)
}

func (h *HUD) drawControls(screen render.Image, st Status) {
	var help string
	switch st.State {
	case replay.StatePlaying, replay.StateEnding:
		help = "Left/Right seek  Up/Down speed  Esc stop"
	case replay.StateRecording:
		help = "R stop recording"
	default:
		help = "R record  P play  K save  Space pause  Esc menu"
	}
	_, th := h.renderer.MeasureText(help, 1)
	h.renderer.DrawText(screen, help, 10, h.screenHeight-th-6, color.RGBA{150, 150, 150, 255}, 1)
}

// FormatClock renders seconds as m:ss.t.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	tenths := int(math.Floor(seconds * 10))
	return fmt.Sprintf("%d:%02d.%d", tenths/600, (tenths/10)%60, tenths%10)
}

// FormatSpeed renders a playback multiplier without trailing zeros.
func FormatSpeed(speed float64) string {
	return fmt.Sprintf("%g", math.Round(speed*100)/100)
}

// Progress is the fraction of duration covered by t, in [0, 1].
func Progress(t, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return clamp01(t / duration)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
