package game

import (
	"chosenoffset.com/topdown/internal/replay/storage"
)

// Camera tracks the viewport position for scrolling the arena.
type Camera struct {
	X, Y float64 // Camera position (top-left corner of viewport in world coords)
}

// Message represents an on-screen message that fades over time.
type Message struct {
	Text     string
	TimeLeft float64 // Seconds remaining
	MaxTime  float64 // Initial duration
}

// ReplayStore persists replays. *storage.ReplayService implements it.
type ReplayStore interface {
	Save(r *storage.Replay) (string, error)
	Load(path string) (*storage.Replay, error)
	List() ([]storage.Entry, error)
}

const messageDuration = 3.0
