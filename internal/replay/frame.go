package replay

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidFrames is returned when a frame sequence cannot be used as a replay.
var ErrInvalidFrames = errors.New("invalid replay frames")

// EnemySnapshot is the recorded state of one enemy.
type EnemySnapshot struct {
	ID       int
	Position mgl64.Vec2
	Rotation float64
	Health   float64
	Alive    bool
	State    string // AI state name, for display only
}

// ProjectileSnapshot is the recorded state of a bullet or grenade.
type ProjectileSnapshot struct {
	ID       int
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Rotation float64
	Fuse     float64 // Seconds until detonation (grenades only)
}

// EventRecord is a one-shot trigger (sound, muzzle flash, explosion) that
// happened during the tick the frame was captured on.
type EventRecord struct {
	Kind      string
	Position  mgl64.Vec2
	Magnitude float64
}

// Frame is a snapshot of world state at a point in recorded time.
// Frames are owned by the Session; callers receive copies.
type Frame struct {
	Time float64 // Seconds since recording started

	PlayerPosition   mgl64.Vec2
	PlayerRotation   float64
	PlayerModelScale mgl64.Vec2
	PlayerAlive      bool

	Enemies  []EnemySnapshot
	Bullets  []ProjectileSnapshot
	Grenades []ProjectileSnapshot
	Events   []EventRecord
}

// Clone returns a deep copy of the frame. No slice of the result shares
// backing storage with f.
func (f Frame) Clone() Frame {
	out := f
	out.Enemies = cloneSlice(f.Enemies)
	out.Bullets = cloneSlice(f.Bullets)
	out.Grenades = cloneSlice(f.Grenades)
	out.Events = cloneSlice(f.Events)
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// ValidateFrames checks that frames can be played back: every time is finite,
// non-negative, strictly increasing and no later than maxDuration.
func ValidateFrames(frames []Frame, maxDuration float64) error {
	prev := math.Inf(-1)
	for i, f := range frames {
		if math.IsNaN(f.Time) || math.IsInf(f.Time, 0) || f.Time < 0 {
			return fmt.Errorf("%w: frame %d has time %v", ErrInvalidFrames, i, f.Time)
		}
		if f.Time <= prev {
			return fmt.Errorf("%w: frame %d time %v not after %v", ErrInvalidFrames, i, f.Time, prev)
		}
		if f.Time > maxDuration {
			return fmt.Errorf("%w: frame %d time %v exceeds %v", ErrInvalidFrames, i, f.Time, maxDuration)
		}
		prev = f.Time
	}
	return nil
}
