package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/replay/storage"
	"chosenoffset.com/topdown/internal/simulation"
)

// SeekStep is how far Left and Right move the playback clock, in seconds.
const SeekStep = 5.0

// handleReplayControls maps key presses to replay commands.
func (g *Game) handleReplayControls() {
	in := g.InputMgr
	s := g.Session
	playback := s.IsReplaying() || s.IsEnding()

	if in.IsKeyJustPressed(render.KeyEscape) {
		if playback {
			s.StopPlayback()
		} else {
			if s.IsRecording() {
				s.StopRecording()
			}
			g.Exit = true
		}
		return
	}

	if in.IsKeyJustPressed(render.KeyR) {
		if s.IsRecording() {
			s.StopRecording()
			g.ShowMessage(fmt.Sprintf("Recorded %.1fs (%d frames)", s.Duration(), s.FrameCount()))
		} else {
			s.StartRecording()
			g.Paused = false
			g.ShowMessage("Recording")
		}
	}

	if in.IsKeyJustPressed(render.KeyP) && !s.IsRecording() {
		if s.HasReplay() {
			s.StartPlayback()
		} else {
			g.ShowMessage("Nothing recorded yet")
		}
	}

	if in.IsKeyJustPressed(render.KeyK) {
		g.SaveReplay()
	}

	if playback {
		if in.IsKeyJustPressed(render.KeyLeft) {
			s.SeekTo(s.PlaybackTime() - SeekStep)
		}
		if in.IsKeyJustPressed(render.KeyRight) {
			s.SeekTo(s.PlaybackTime() + SeekStep)
		}
		if in.IsKeyJustPressed(render.KeyUp) {
			s.SetPlaybackSpeed(s.PlaybackSpeed() * 2)
		}
		if in.IsKeyJustPressed(render.KeyDown) {
			s.SetPlaybackSpeed(s.PlaybackSpeed() / 2)
		}
	} else if in.IsKeyJustPressed(render.KeySpace) && !s.IsRecording() {
		g.Paused = !g.Paused
	}
}

// SaveReplay writes the current recording to the store.
func (g *Game) SaveReplay() {
	s := g.Session
	switch {
	case g.Store == nil:
		g.ShowMessage("Saving is disabled")
		return
	case s.IsRecording():
		g.ShowMessage("Stop recording before saving")
		return
	case !s.HasReplay():
		g.ShowMessage("Nothing to save")
		return
	}

	path, err := g.Store.Save(storage.NewReplay(s.Frames()))
	if err != nil {
		g.log.WithError(err).Warn("Failed to save replay")
		g.ShowMessage("Save failed")
		return
	}
	g.ShowMessage("Saved " + path)
}

// readInput turns held keys and the mouse into the player's intent.
func (g *Game) readInput() simulation.Input {
	in := g.InputMgr
	var move mgl64.Vec2
	if in.IsKeyPressed(render.KeyW) {
		move[1]--
	}
	if in.IsKeyPressed(render.KeyS) {
		move[1]++
	}
	if in.IsKeyPressed(render.KeyA) {
		move[0]--
	}
	if in.IsKeyPressed(render.KeyD) {
		move[0]++
	}

	cx, cy := in.GetCursorPosition()
	return simulation.Input{
		Move:  move,
		Aim:   g.ScreenToWorld(cx, cy),
		Fire:  in.IsMouseButtonPressed(render.MouseButtonLeft),
		Throw: in.IsKeyJustPressed(render.KeyG) || in.IsMouseButtonPressed(render.MouseButtonRight),
	}
}

// ScreenToWorld converts a screen position to arena coordinates.
func (g *Game) ScreenToWorld(x, y int) mgl64.Vec2 {
	return mgl64.Vec2{float64(x) + g.Camera.X, float64(y) + g.Camera.Y}
}
