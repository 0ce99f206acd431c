package game

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/replay"
	"chosenoffset.com/topdown/internal/simulation"
	"chosenoffset.com/topdown/internal/ui/hud"
)

// Game drives one arena: it steps the live world, feeds the replay session
// and, during playback, shows recorded frames in place of the live world.
type Game struct {
	ScreenWidth  int
	ScreenHeight int
	TickDelta    float64 // Seconds per Update call

	World    *simulation.World
	Session  *replay.Session
	Store    ReplayStore
	Renderer render.Renderer
	InputMgr render.InputManager
	GameHUD  *hud.HUD
	Camera   Camera
	Minimap  render.Image // Offscreen arena overview, recreated on resize

	// UI state
	Messages []Message
	Paused   bool

	// ExitOnReplayEnd returns to the menu when playback ends, for replays
	// opened from disk.
	ExitOnReplayEnd bool
	// Exit is set when the player leaves the arena.
	Exit bool

	live *simulation.World // World state saved while playback borrows World
	log  logrus.FieldLogger

	// Debug
	FrameCount int
}

// NewGame wires a game around world and a session that samples it. The
// session must have been created with world as its sampler.
func NewGame(world *simulation.World, session *replay.Session, r render.Renderer, input render.InputManager, width, height int, tickDelta float64, log logrus.FieldLogger) *Game {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Game{
		ScreenWidth:  width,
		ScreenHeight: height,
		TickDelta:    tickDelta,
		World:        world,
		Session:      session,
		Renderer:     r,
		InputMgr:     input,
		GameHUD:      hud.New(hud.DefaultConfig(), r, width, height),
		log:          log.WithField("component", "game"),
	}
	session.Subscribe(g.onReplayEvent)
	return g
}

// onReplayEvent keeps the live world safe while playback overwrites it.
func (g *Game) onReplayEvent(e replay.Event) {
	switch e.Kind {
	case replay.EventStarted:
		if g.live == nil {
			g.live = g.World.Clone()
		}
		g.ShowMessage(fmt.Sprintf("Playing replay (%.1fs)", g.Session.Duration()))
	case replay.EventEnded:
		if g.live != nil {
			*g.World = *g.live
			g.live = nil
		}
		g.ShowMessage("Replay ended")
		if g.ExitOnReplayEnd {
			g.Exit = true
		}
	}
}

// Update handles game logic updates.
func (g *Game) Update() error {
	dt := g.TickDelta
	g.FrameCount++
	g.updateMessages(dt)

	g.handleReplayControls()
	if g.Exit {
		return nil
	}

	playback := g.Session.IsReplaying() || g.Session.IsEnding()
	if !playback {
		if g.Paused {
			return nil
		}
		g.World.Step(dt, g.readInput())
	}

	g.Session.Step(dt)
	if !g.Session.IsRecording() {
		g.World.DiscardEvents()
	}

	if g.Session.IsReplaying() || g.Session.IsEnding() {
		g.showPlaybackFrame()
		g.World.UpdateEffects(dt)
	}

	g.UpdateCamera()
	return nil
}

// showPlaybackFrame blends the two frames around the playback clock into the
// world.
func (g *Game) showPlaybackFrame() {
	from, to, alpha, ok := g.Session.Interpolation()
	if !ok {
		return
	}
	g.World.ApplyFrame(simulation.LerpFrame(from, to, alpha))
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenWidth, g.ScreenHeight
}

// Resize updates the viewport and HUD for a new screen size.
func (g *Game) Resize(width, height int) {
	g.ScreenWidth = width
	g.ScreenHeight = height
	g.GameHUD.SetScreenSize(width, height)
	g.UpdateCamera()
}

// UpdateCamera centres the camera on the player, clamped to the arena.
func (g *Game) UpdateCamera() {
	arena := g.World.Config().Arena
	g.Camera.X = clampView(g.World.Player.Pos.X()-float64(g.ScreenWidth)/2, arena.Width, float64(g.ScreenWidth))
	g.Camera.Y = clampView(g.World.Player.Pos.Y()-float64(g.ScreenHeight)/2, arena.Height, float64(g.ScreenHeight))
}

// clampView keeps a view of size view inside [0, size]. Views larger than the
// arena centre it instead.
func clampView(pos, size, view float64) float64 {
	if view >= size {
		return (size - view) / 2
	}
	if pos < 0 {
		return 0
	}
	if pos > size-view {
		return size - view
	}
	return pos
}

func (g *Game) updateMessages(dt float64) {
	var active []Message
	for _, msg := range g.Messages {
		msg.TimeLeft -= dt
		if msg.TimeLeft > 0 {
			active = append(active, msg)
		}
	}
	g.Messages = active
}

// ShowMessage adds a new message to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.Messages = append(g.Messages, Message{
		Text:     text,
		TimeLeft: messageDuration,
		MaxTime:  messageDuration,
	})
	g.log.WithField("message", text).Debug("Message")
}

// Status collects what the HUD shows this frame.
func (g *Game) Status() hud.Status {
	s := g.Session
	return hud.Status{
		State:         s.State(),
		Paused:        g.Paused,
		RecordingTime: s.RecordingTime(),
		MaxRecording:  s.Limits().MaxRecordingDuration,
		PlaybackTime:  s.PlaybackTime(),
		Duration:      s.Duration(),
		Speed:         s.PlaybackSpeed(),
		HasReplay:     s.HasReplay(),
		Health:        g.World.Player.Health,
		MaxHealth:     g.World.Config().Player.MaxHealth,
		Kills:         g.World.Kills,
	}
}
