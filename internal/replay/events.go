package replay

// EventKind identifies a session notification.
type EventKind int

const (
	// EventStarted fires when playback begins.
	EventStarted EventKind = iota
	// EventEnded fires when playback fully stops, after the ending grace
	// period or on an explicit stop.
	EventEnded
	// EventProgress fires on every playback advance.
	EventProgress
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "replay_started"
	case EventEnded:
		return "replay_ended"
	case EventProgress:
		return "playback_progress"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners synchronously from inside the call that
// caused it. Current and Total are only set for EventProgress.
type Event struct {
	Kind    EventKind
	Current float64
	Total   float64
}

// Listener receives session events.
type Listener func(Event)

// AdvanceResult reports what a single playback advance did.
type AdvanceResult int

const (
	// AdvanceOK means playback moved forward and is still running.
	AdvanceOK AdvanceResult = iota
	// AdvanceCompleted means the end of the recording was reached and the
	// session entered its ending grace period.
	AdvanceCompleted
	// AdvanceStopped means there was nothing to play and playback was stopped.
	AdvanceStopped
)

// Subscribe registers l for all future events. Listeners are called in
// registration order.
func (s *Session) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		l(e)
	}
}
