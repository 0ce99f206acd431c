package replay

// Phase names the branch Step took on a tick.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseEnding
	PhasePlaying
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseEnding:
		return "ending"
	case PhasePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Step is the single per-tick entry point. Exactly one of recording, the
// ending countdown or playback advances, in that order of precedence.
func (s *Session) Step(delta float64) Phase {
	switch {
	case s.recording:
		s.RecordTick(delta)
		return PhaseRecording
	case s.ending:
		s.TickEnding(delta)
		return PhaseEnding
	case s.playing:
		s.AdvancePlayback(delta)
		return PhasePlaying
	default:
		return PhaseIdle
	}
}
