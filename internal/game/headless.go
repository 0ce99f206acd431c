package game

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"chosenoffset.com/topdown/internal/replay"
	"chosenoffset.com/topdown/internal/simulation"
)

// PlaybackStats summarises a headless playback.
type PlaybackStats struct {
	Ticks  int
	Frames int // Distinct frames applied
	Events int // Recorded events replayed
}

// RunHeadless plays frames to the end without a window, applying the
// interpolated frame to world every tickDelta. It returns when playback ends or ctx is done.
func RunHeadless(ctx context.Context, frames []replay.Frame, world *simulation.World, limits replay.Limits, tickDelta float64, log logrus.FieldLogger) (PlaybackStats, error) {
	var stats PlaybackStats
	if tickDelta <= 0 || math.IsNaN(tickDelta) {
		return stats, fmt.Errorf("tick delta must be positive, got %v", tickDelta)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	session := replay.NewSession(world, replay.WithLimits(limits), replay.WithLogger(log))
	if err := session.LoadFrames(frames); err != nil {
		return stats, err
	}

	lastSecond := -1
	session.Subscribe(func(e replay.Event) {
		switch e.Kind {
		case replay.EventStarted:
			log.WithField("duration", session.Duration()).Info("Headless playback started")
		case replay.EventProgress:
			if s := int(e.Current); s != lastSecond {
				lastSecond = s
				log.WithFields(logrus.Fields{"t": e.Current, "total": e.Total}).Debug("Playback progress")
			}
		case replay.EventEnded:
			log.WithField("ticks", stats.Ticks).Info("Headless playback ended")
		}
	})

	session.StartPlayback()
	lastTime := math.Inf(-1)
	for session.IsReplaying() || session.IsEnding() {
		select {
		case <-ctx.Done():
			session.StopPlayback()
			return stats, ctx.Err()
		default:
		}

		session.Step(tickDelta)
		stats.Ticks++
		if !session.IsReplaying() && !session.IsEnding() {
			break
		}
		if from, to, alpha, ok := session.Interpolation(); ok {
			f := simulation.LerpFrame(from, to, alpha)
			if f.Time != lastTime {
				lastTime = f.Time
				stats.Frames++
				stats.Events += len(f.Events)
			}
			world.ApplyFrame(f)
		}
		world.UpdateEffects(tickDelta)
	}
	return stats, nil
}
