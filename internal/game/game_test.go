package game

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/render/rendertest"
	"chosenoffset.com/topdown/internal/replay"
	"chosenoffset.com/topdown/internal/replay/storage"
	"chosenoffset.com/topdown/internal/simulation"
	"chosenoffset.com/topdown/internal/ui/menu"
)

const tick = 1.0 / 60.0

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testRules() *simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.Enemies.Count = 0
	return cfg
}

type fakeStore struct {
	saved   []*storage.Replay
	saveErr error
	entries []storage.Entry
	replays map[string]*storage.Replay
	lists   int
}

func (f *fakeStore) Save(r *storage.Replay) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, r)
	return storage.FileName(r), nil
}

func (f *fakeStore) Load(path string) (*storage.Replay, error) {
	r, ok := f.replays[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeStore) List() ([]storage.Entry, error) {
	f.lists++
	return f.entries, nil
}

type harness struct {
	g     *Game
	in    *rendertest.Input
	r     *rendertest.Renderer
	store *fakeStore
}

func setupGame(t *testing.T, limits replay.Limits) *harness {
	t.Helper()
	world := simulation.NewWorld(testRules(), rand.New(rand.NewSource(1)))
	session := replay.NewSession(world, replay.WithLimits(limits), replay.WithLogger(quietLogger()))
	in := rendertest.NewInput()
	r := &rendertest.Renderer{}
	g := NewGame(world, session, r, in, 800, 600, tick, quietLogger())
	store := &fakeStore{}
	g.Store = store
	return &harness{g: g, in: in, r: r, store: store}
}

// update runs one tick with keys tapped for that tick only.
func (h *harness) update(t *testing.T, keys ...render.Key) {
	t.Helper()
	h.in.Tap(keys...)
	if err := h.g.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	h.in.Next()
}

func (h *harness) run(t *testing.T, ticks int) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		h.update(t)
	}
}

func (h *harness) hasMessage(s string) bool {
	for _, m := range h.g.Messages {
		if strings.Contains(m.Text, s) {
			return true
		}
	}
	return false
}

// record holds D for n ticks while recording.
func (h *harness) record(t *testing.T, n int) {
	t.Helper()
	h.in.Held[render.KeyD] = true
	h.update(t, render.KeyR)
	h.run(t, n-1)
	h.in.Held[render.KeyD] = false
	h.update(t, render.KeyR)
}

func TestRecordPlaybackRestoresLiveWorld(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	start := h.g.World.Player.Pos

	h.record(t, 60)
	if h.g.Session.FrameCount() != 60 {
		t.Fatalf("Expected 60 frames, got %d", h.g.Session.FrameCount())
	}
	live := h.g.World.Player.Pos
	if live.X() <= start.X() {
		t.Fatalf("Expected player to have moved right, got %v", live)
	}

	h.update(t, render.KeyP)
	if !h.g.Session.IsReplaying() {
		t.Fatal("Expected playback to start")
	}
	if x := h.g.World.Player.Pos.X(); x >= live.X() {
		t.Errorf("Expected replayed player near the start, got x=%v", x)
	}

	for i := 0; i < 300 && h.g.Session.State() != replay.StateIdle; i++ {
		h.update(t)
	}
	if h.g.Session.State() != replay.StateIdle {
		t.Fatal("Playback never finished")
	}
	if h.g.World.Player.Pos != live {
		t.Errorf("Expected live world restored at %v, got %v", live, h.g.World.Player.Pos)
	}
	if !h.hasMessage("Replay ended") {
		t.Error("Expected a replay ended message")
	}
	if h.g.Exit {
		t.Error("A live run should not exit when playback ends")
	}
}

func TestPlaybackControls(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	h.record(t, 60*12)
	h.update(t, render.KeyP)

	h.update(t, render.KeyRight)
	if pt := h.g.Session.PlaybackTime(); pt < SeekStep {
		t.Errorf("Expected seek forward past %v, got %v", SeekStep, pt)
	}

	h.update(t, render.KeyUp)
	if h.g.Session.PlaybackSpeed() != 2 {
		t.Errorf("Expected speed 2, got %v", h.g.Session.PlaybackSpeed())
	}
	h.update(t, render.KeyDown)
	h.update(t, render.KeyDown)
	if h.g.Session.PlaybackSpeed() != 0.5 {
		t.Errorf("Expected speed 0.5, got %v", h.g.Session.PlaybackSpeed())
	}

	h.update(t, render.KeyLeft)
	if pt := h.g.Session.PlaybackTime(); pt > 1 {
		t.Errorf("Expected seek back near the start, got %v", pt)
	}

	h.update(t, render.KeyEscape)
	if h.g.Session.State() != replay.StateIdle {
		t.Errorf("Expected Escape to stop playback, got %s", h.g.Session.State())
	}
	if h.g.Exit {
		t.Error("Escape during playback should not leave the arena")
	}

	h.update(t, render.KeyEscape)
	if !h.g.Exit {
		t.Error("Escape while idle should leave the arena")
	}
}

func TestRecordingDuringPlaybackEndsPlayback(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	h.record(t, 30)
	live := h.g.World.Player.Pos

	h.update(t, render.KeyP)
	h.update(t, render.KeyR)
	if !h.g.Session.IsRecording() || h.g.Session.IsReplaying() {
		t.Fatalf("Expected recording only, got %s", h.g.Session.State())
	}
	if h.g.World.Player.Pos != live {
		t.Errorf("Expected live world restored before recording, got %v", h.g.World.Player.Pos)
	}
}

func TestRecordingStopsAtLimit(t *testing.T) {
	limits := replay.DefaultLimits()
	limits.MaxRecordingDuration = 0.5
	h := setupGame(t, limits)

	h.update(t, render.KeyR)
	h.run(t, 60)
	if h.g.Session.IsRecording() {
		t.Fatal("Expected recording to stop at the limit")
	}
	if d := h.g.Session.Duration(); d > 0.5 {
		t.Errorf("Expected duration within limit, got %v", d)
	}
}

func TestPauseFreezesWorld(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	h.update(t, render.KeySpace)
	if !h.g.Paused {
		t.Fatal("Expected paused")
	}
	before := h.g.World.Time
	h.run(t, 10)
	if h.g.World.Time != before {
		t.Error("World advanced while paused")
	}

	// Recording resumes the run.
	h.update(t, render.KeyR)
	if h.g.Paused || !h.g.Session.IsRecording() {
		t.Error("Expected recording to unpause")
	}
}

func TestPlayWithoutReplay(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	h.update(t, render.KeyP)
	if h.g.Session.IsReplaying() {
		t.Error("Playback should not start without frames")
	}
	if !h.hasMessage("Nothing recorded") {
		t.Error("Expected a hint message")
	}
}

func TestSaveReplay(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())

	h.update(t, render.KeyK)
	if len(h.store.saved) != 0 || !h.hasMessage("Nothing to save") {
		t.Fatal("Expected nothing saved before recording")
	}

	h.record(t, 20)
	h.update(t, render.KeyK)
	if len(h.store.saved) != 1 {
		t.Fatalf("Expected 1 saved replay, got %d", len(h.store.saved))
	}
	if got := len(h.store.saved[0].Frames); got != 20 {
		t.Errorf("Expected 20 frames saved, got %d", got)
	}
	if !h.hasMessage("Saved replay_") {
		t.Error("Expected saved message")
	}

	h.store.saveErr = errors.New("disk full")
	h.update(t, render.KeyK)
	if !h.hasMessage("Save failed") {
		t.Error("Expected save failure message")
	}
}

func TestDrawShowsOverlay(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	screen := rendertest.NewImage(800, 600)

	h.g.Draw(screen)
	if screen.Fills == 0 || h.r.Circles == 0 {
		t.Error("Expected the arena and player to be drawn")
	}
	if screen.Draws != 1 || h.g.Minimap == nil {
		t.Error("Expected the minimap blitted once")
	}
	if w, hh := h.g.Minimap.Size(); w != minimapWidth || hh != 120 {
		t.Errorf("Expected 160x120 minimap, got %dx%d", w, hh)
	}
	if mm := h.g.Minimap.(*rendertest.Image); mm.Clears != 1 {
		t.Errorf("Expected the minimap cleared before redraw, got %d clears", mm.Clears)
	}
	if geo := screen.LastOps.GeoM.(*rendertest.GeoM); geo.SX != 1 || geo.TX != 800-160-minimapMargin {
		t.Errorf("Unexpected minimap placement %+v", geo)
	}

	// A narrow screen shrinks the minimap to a quarter of its width.
	h.g.Resize(320, 240)
	small := rendertest.NewImage(320, 240)
	h.g.Draw(small)
	if geo := small.LastOps.GeoM.(*rendertest.GeoM); geo.SX != 0.5 || geo.TX != 320-80-minimapMargin {
		t.Errorf("Expected half-size minimap at the right edge, got %+v", geo)
	}
	h.g.Resize(800, 600)

	h.record(t, 30)
	h.update(t, render.KeyP)
	h.r.Reset()
	h.g.Draw(screen)
	if !h.r.HasText("REPLAY") {
		t.Errorf("Expected playback overlay, got %v", h.r.Texts)
	}
}

func TestMinimapScale(t *testing.T) {
	tests := []struct {
		screen, width int
		want          float64
	}{
		{800, 160, 1},
		{640, 160, 1},
		{320, 160, 0.5},
		{0, 160, 1},
	}
	for _, tt := range tests {
		if got := minimapScale(tt.screen, tt.width); got != tt.want {
			t.Errorf("minimapScale(%d, %d) = %v, want %v", tt.screen, tt.width, got, tt.want)
		}
	}
}

func TestClampView(t *testing.T) {
	tests := []struct {
		pos, size, view, want float64
	}{
		{-10, 1000, 200, 0},
		{500, 1000, 200, 500},
		{900, 1000, 200, 800},
		{0, 100, 200, -50},
	}
	for _, tt := range tests {
		if got := clampView(tt.pos, tt.size, tt.view); got != tt.want {
			t.Errorf("clampView(%v, %v, %v) = %v, want %v", tt.pos, tt.size, tt.view, got, tt.want)
		}
	}
}

func TestScreenToWorld(t *testing.T) {
	h := setupGame(t, replay.DefaultLimits())
	h.g.Camera = Camera{X: 100, Y: 50}
	if got := h.g.ScreenToWorld(10, 20); got != (mgl64.Vec2{110, 70}) {
		t.Errorf("Expected (110,70), got %v", got)
	}
}

func recordedFrames(t *testing.T, n int) []replay.Frame {
	t.Helper()
	h := setupGame(t, replay.DefaultLimits())
	h.record(t, n)
	return h.g.Session.Frames()
}

func TestManagerOpensReplayAndReturns(t *testing.T) {
	frames := recordedFrames(t, 30)
	r := &storage.Replay{RecordedAt: time.Now(), Frames: frames}
	store := &fakeStore{
		entries: []storage.Entry{{Path: "one.tdrp", Duration: frames[len(frames)-1].Time, FrameCount: len(frames)}},
		replays: map[string]*storage.Replay{"one.tdrp": r},
	}
	in := rendertest.NewInput()
	m := NewManager(&rendertest.Renderer{}, in, testRules(), store, 800, 600, tick, quietLogger())
	if store.lists != 1 {
		t.Fatalf("Expected replays listed on start, got %d", store.lists)
	}

	in.Tap(render.KeyDown)
	m.Update()
	in.Next()
	in.Tap(render.KeyEnter)
	m.Update()
	in.Next()

	if m.State != menu.StatePlaying || m.Game == nil {
		t.Fatal("Expected replay to open")
	}
	if !m.Game.Session.IsReplaying() {
		t.Fatal("Expected playback running")
	}

	for i := 0; i < 300 && m.State == menu.StatePlaying; i++ {
		if err := m.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if m.State != menu.StateMainMenu || m.Game != nil {
		t.Fatal("Expected return to menu when playback ends")
	}
	if store.lists != 2 {
		t.Errorf("Expected replay list refreshed, got %d lists", store.lists)
	}
}

func TestManagerOpenReplayFailure(t *testing.T) {
	store := &fakeStore{entries: []storage.Entry{{Path: "missing.tdrp"}}}
	in := rendertest.NewInput()
	m := NewManager(&rendertest.Renderer{}, in, testRules(), store, 800, 600, tick, quietLogger())

	in.Tap(render.KeyDown)
	m.Update()
	in.Next()
	in.Tap(render.KeyEnter)
	if err := m.Update(); err != nil {
		t.Fatalf("Open failure should not stop the game: %v", err)
	}
	if m.State != menu.StateMainMenu {
		t.Error("Expected to stay on the menu")
	}
}

func TestManagerNewRun(t *testing.T) {
	in := rendertest.NewInput()
	m := NewManager(&rendertest.Renderer{}, in, testRules(), nil, 800, 600, tick, quietLogger())
	m.Seed = 42

	in.Tap(render.KeyEnter)
	m.Update()
	in.Next()
	if m.State != menu.StatePlaying || m.Game == nil {
		t.Fatal("Expected a run to start")
	}

	in.Tap(render.KeyEscape)
	m.Update()
	if m.State != menu.StateMainMenu {
		t.Error("Expected Escape to return to the menu")
	}

	if w, h := m.Layout(1024, 768); w != 1024 || h != 768 || m.ScreenWidth != 1024 {
		t.Errorf("Unexpected layout %dx%d", w, h)
	}
}

func TestRunHeadless(t *testing.T) {
	frames := recordedFrames(t, 90)
	world := simulation.NewWorld(testRules(), rand.New(rand.NewSource(2)))

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	stats, err := RunHeadless(context.Background(), frames, world, replay.DefaultLimits(), tick, log)
	if err != nil {
		t.Fatalf("RunHeadless failed: %v", err)
	}
	var started, ended int
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "Headless playback started":
			started++
		case "Headless playback ended":
			ended++
		}
	}
	if started != 1 || ended != 1 {
		t.Errorf("Expected one start and one end log, got %d and %d", started, ended)
	}
	// 1.5s of playback plus the 0.5s grace period.
	if stats.Ticks < 115 || stats.Ticks > 125 {
		t.Errorf("Expected about 120 ticks, got %d", stats.Ticks)
	}
	if stats.Frames < 80 {
		t.Errorf("Expected most frames applied, got %d", stats.Frames)
	}
	last := frames[len(frames)-1]
	if world.Player.Pos != last.PlayerPosition {
		t.Errorf("Expected world at last frame %v, got %v", last.PlayerPosition, world.Player.Pos)
	}
}

func TestRunHeadlessErrors(t *testing.T) {
	world := simulation.NewWorld(testRules(), rand.New(rand.NewSource(2)))

	if _, err := RunHeadless(context.Background(), nil, world, replay.DefaultLimits(), 0, quietLogger()); err == nil {
		t.Error("Expected error for zero tick delta")
	}

	bad := []replay.Frame{{Time: 1}, {Time: 0.5}}
	if _, err := RunHeadless(context.Background(), bad, world, replay.DefaultLimits(), tick, quietLogger()); !errors.Is(err, replay.ErrInvalidFrames) {
		t.Errorf("Expected ErrInvalidFrames, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames := []replay.Frame{{Time: 0.5}, {Time: 1}}
	if _, err := RunHeadless(ctx, frames, world, replay.DefaultLimits(), tick, quietLogger()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
