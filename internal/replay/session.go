// Package replay records fixed-rate snapshots of the world and plays them
// back at variable speed with seeking.
//
// A Session is a single-threaded state machine driven by the host game's
// fixed-step update. It moves between idle, recording, playing and a short
// ending grace period after playback reaches the end. Nothing in this package
// blocks or locks; callers must drive a Session from one goroutine.
package replay

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Sampler captures the current world state. It is called once per recorded
// tick and must return a value snapshot that does not alias live game state.
type Sampler interface {
	SampleFrame() Frame
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func() Frame

// SampleFrame calls f.
func (f SamplerFunc) SampleFrame() Frame { return f() }

// Applier pushes a recorded frame back into the world during playback.
type Applier interface {
	ApplyFrame(f Frame)
}

// Limits bounds recording length, the ending grace period and playback speed.
type Limits struct {
	MaxRecordingDuration float64 // seconds
	EndingGrace          float64 // seconds
	MinSpeed             float64
	MaxSpeed             float64
}

// DefaultLimits returns the standard limits: five minutes of recording, a
// half-second ending grace period and speeds from 0.25x to 4x.
func DefaultLimits() Limits {
	return Limits{
		MaxRecordingDuration: 300.0,
		EndingGrace:          0.5,
		MinSpeed:             0.25,
		MaxSpeed:             4.0,
	}
}

// State is the coarse phase of a Session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePlaying
	StateEnding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	case StateEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// Session owns the frame buffer together with the recording and playback clocks.
type Session struct {
	sampler Sampler
	limits  Limits
	log     logrus.FieldLogger

	frames        []Frame
	recordingTime float64
	recording     bool

	playing      bool
	playbackTime float64
	frameIndex   int
	speed        float64
	ending       bool
	endTimer     float64

	listeners []Listener
}

// Option configures a Session.
type Option func(*Session)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(s *Session) {
		s.limits = l
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSession creates an idle session that records frames from sampler.
func NewSession(sampler Sampler, opts ...Option) *Session {
	s := &Session{
		sampler: sampler,
		limits:  DefaultLimits(),
		log:     logrus.StandardLogger(),
		speed:   1.0,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "replay")
	return s
}

// StartRecording discards any previous replay and begins recording.
// Active playback is abandoned.
func (s *Session) StartRecording() {
	if s.playing || s.ending {
		s.StopPlayback()
	}
	s.frames = nil
	s.recordingTime = 0
	s.playbackTime = 0
	s.frameIndex = 0
	s.recording = true
	s.playing = false
	s.log.Debug("Recording started")
}

// RecordTick advances the recording clock by delta and captures one frame.
// When the tick would carry the clock past the maximum duration, recording
// stops instead and no frame is appended. Non-positive deltas are ignored.
func (s *Session) RecordTick(delta float64) {
	if !s.recording || !(delta > 0) {
		return
	}

	next := s.recordingTime + delta
	if next > s.limits.MaxRecordingDuration {
		s.log.WithFields(logrus.Fields{
			"duration": s.Duration(),
			"frames":   len(s.frames),
		}).Info("Recording reached maximum duration")
		s.StopRecording()
		return
	}

	s.recordingTime = next
	var f Frame
	if s.sampler != nil {
		f = s.sampler.SampleFrame().Clone()
	}
	f.Time = s.recordingTime
	s.frames = append(s.frames, f)
}

// StopRecording finalizes the current recording. It does nothing when not
// recording.
func (s *Session) StopRecording() {
	if !s.recording {
		return
	}
	s.recording = false
	s.log.WithFields(logrus.Fields{
		"duration": s.Duration(),
		"frames":   len(s.frames),
	}).Debug("Recording stopped")
}

// StartPlayback plays the recorded frames from the beginning at normal
// speed. It does nothing when there is no replay.
func (s *Session) StartPlayback() {
	if len(s.frames) == 0 {
		return
	}
	s.playing = true
	s.recording = false
	s.ending = false
	s.endTimer = 0
	s.frameIndex = 0
	s.playbackTime = 0
	s.speed = 1.0
	s.log.WithField("duration", s.Duration()).Debug("Playback started")
	s.emit(Event{Kind: EventStarted})
}

// AdvancePlayback moves the playback clock forward by delta scaled by the
// playback speed and selects the frame to display. Reaching the end clamps the
// clock and starts the ending grace period.
func (s *Session) AdvancePlayback(delta float64) AdvanceResult {
	if len(s.frames) == 0 {
		s.StopPlayback()
		return AdvanceStopped
	}

	s.playbackTime += delta * s.speed
	duration := s.Duration()
	s.emit(Event{Kind: EventProgress, Current: s.playbackTime, Total: duration})

	if s.playbackTime >= duration {
		s.playbackTime = duration
		s.ending = true
		s.endTimer = s.limits.EndingGrace
		s.playing = false
		s.log.Debug("Playback reached end")
		return AdvanceCompleted
	}

	last := len(s.frames) - 1
	for s.frameIndex < last && s.frames[s.frameIndex+1].Time <= s.playbackTime {
		s.frameIndex++
	}
	return AdvanceOK
}

// TickEnding counts down the grace period after playback completes and
// stops playback once it runs out.
func (s *Session) TickEnding(delta float64) {
	if !s.ending {
		return
	}
	s.endTimer -= delta
	if s.endTimer <= 0 {
		s.StopPlayback()
	}
}

// StopPlayback returns the session to idle. It may be called at any point
// during playback or the ending grace period; otherwise it does nothing.
func (s *Session) StopPlayback() {
	if !s.playing && !s.ending {
		return
	}
	s.playing = false
	s.ending = false
	s.endTimer = 0
	s.log.WithField("time", s.playbackTime).Debug("Playback stopped")
	s.emit(Event{Kind: EventEnded})
}

// SetPlaybackSpeed stores speed clamped to the configured range.
func (s *Session) SetPlaybackSpeed(speed float64) {
	switch {
	case math.IsNaN(speed), speed < s.limits.MinSpeed:
		speed = s.limits.MinSpeed
	case speed > s.limits.MaxSpeed:
		speed = s.limits.MaxSpeed
	}
	s.speed = speed
}

// SeekTo moves the playback clock to t, clamped to [0, Duration()], and
// reselects the frame index. Seeking during the ending grace period to
// before the end resumes playback. StartPlayback always rewinds, so seek
// after starting.
func (s *Session) SeekTo(t float64) {
	if len(s.frames) == 0 {
		return
	}

	duration := s.Duration()
	switch {
	case math.IsNaN(t), t < 0:
		t = 0
	case t > duration:
		t = duration
	}
	s.playbackTime = t

	idx := len(s.frames) - 1
	for i, f := range s.frames {
		if f.Time >= t {
			idx = max(0, i-1)
			break
		}
	}
	s.frameIndex = idx

	if s.ending && t < duration {
		s.ending = false
		s.endTimer = 0
		s.playing = true
	}
}

// ClearReplay stops any playback and discards the recorded frames.
func (s *Session) ClearReplay() {
	s.StopPlayback()
	s.frames = nil
	s.recordingTime = 0
	s.recording = false
	s.playbackTime = 0
	s.frameIndex = 0
}

// LoadFrames replaces the replay with frames, for example one read from disk.
// Recording and playback are stopped first. The frames are copied.
func (s *Session) LoadFrames(frames []Frame) error {
	if err := ValidateFrames(frames, s.limits.MaxRecordingDuration); err != nil {
		return err
	}
	s.StopRecording()
	s.StopPlayback()

	s.frames = make([]Frame, len(frames))
	for i, f := range frames {
		s.frames[i] = f.Clone()
	}
	s.recordingTime = s.Duration()
	s.playbackTime = 0
	s.frameIndex = 0
	return nil
}

// HasReplay reports whether any frames are recorded.
func (s *Session) HasReplay() bool {
	return len(s.frames) > 0
}

// Duration is the time of the last frame, or 0 without a replay.
func (s *Session) Duration() float64 {
	if len(s.frames) == 0 {
		return 0
	}
	return s.frames[len(s.frames)-1].Time
}

func (s *Session) IsRecording() bool { return s.recording }

// IsReplaying reports whether playback is running. It is false during the
// ending grace period.
func (s *Session) IsReplaying() bool { return s.playing }

func (s *Session) IsEnding() bool { return s.ending }

func (s *Session) PlaybackSpeed() float64 { return s.speed }

func (s *Session) PlaybackTime() float64 { return s.playbackTime }

// FrameIndex is the index of the frame the playback clock currently selects.
func (s *Session) FrameIndex() int { return s.frameIndex }

func (s *Session) EndTimer() float64 { return s.endTimer }

func (s *Session) RecordingTime() float64 { return s.recordingTime }

func (s *Session) FrameCount() int { return len(s.frames) }

func (s *Session) Limits() Limits { return s.limits }

// State returns the current phase.
func (s *Session) State() State {
	switch {
	case s.recording:
		return StateRecording
	case s.ending:
		return StateEnding
	case s.playing:
		return StatePlaying
	default:
		return StateIdle
	}
}

// CurrentFrame returns a copy of the frame selected by the playback clock.
func (s *Session) CurrentFrame() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[s.frameIndex].Clone(), true
}

// Interpolation returns the frames on either side of the playback clock and
// how far between them the clock is, in [0, 1]. At the last frame both frames
// are the same and alpha is 0. Frames the clock has already passed are
// skipped, so the tick that completes playback yields the last frame.
func (s *Session) Interpolation() (from, to Frame, alpha float64, ok bool) {
	if len(s.frames) == 0 {
		return Frame{}, Frame{}, 0, false
	}

	i, last := s.frameIndex, len(s.frames)-1
	for i < last && s.frames[i+1].Time <= s.playbackTime {
		i++
	}
	a := s.frames[i]
	if i == last || s.playbackTime <= a.Time {
		return a.Clone(), a.Clone(), 0, true
	}

	b := s.frames[i+1]
	alpha = (s.playbackTime - a.Time) / (b.Time - a.Time)
	if alpha > 1 {
		alpha = 1
	}
	return a.Clone(), b.Clone(), alpha, true
}

// Frames returns a deep copy of the recorded frames.
func (s *Session) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Clone()
	}
	return out
}
