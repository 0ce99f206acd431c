package simulation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/topdown/internal/replay"
)

const dt = 1.0 / 60.0

// setupWorld returns a world with no enemies and the player at the centre.
func setupWorld() *World {
	cfg := DefaultConfig()
	cfg.Enemies.Count = 0
	return NewWorld(cfg, rand.New(rand.NewSource(1)))
}

func addEnemy(w *World, pos mgl64.Vec2) *Enemy {
	w.Enemies = append(w.Enemies, Enemy{
		ID:     w.newID(),
		Pos:    pos,
		Health: w.cfg.Enemies.MaxHealth,
		Alive:  true,
		State:  EnemyIdle,
	})
	return &w.Enemies[len(w.Enemies)-1]
}

func TestNewWorldSpawnsEnemiesOnEdges(t *testing.T) {
	w := NewWorld(DefaultConfig(), rand.New(rand.NewSource(7)))
	if len(w.Enemies) != 6 {
		t.Fatalf("Expected 6 enemies, got %d", len(w.Enemies))
	}
	for _, e := range w.Enemies {
		onEdge := e.Pos.X() == 0 || e.Pos.Y() == 0 || e.Pos.X() == w.cfg.Arena.Width || e.Pos.Y() == w.cfg.Arena.Height
		if !onEdge {
			t.Errorf("Enemy %d spawned off the edge at %v", e.ID, e.Pos)
		}
	}
	if !w.Player.Alive || w.Player.Health != 100 {
		t.Errorf("Unexpected player %+v", w.Player)
	}
}

func TestPlayerMovesAndStaysInArena(t *testing.T) {
	w := setupWorld()
	start := w.Player.Pos

	w.Step(1, Input{Move: mgl64.Vec2{3, 0}})
	if got := w.Player.Pos.X() - start.X(); math.Abs(got-220) > 1e-9 {
		t.Errorf("Expected to move 220px, moved %v", got)
	}

	for i := 0; i < 20; i++ {
		w.Step(1, Input{Move: mgl64.Vec2{-1, -1}})
	}
	if w.Player.Pos.X() != 0 || w.Player.Pos.Y() != 0 {
		t.Errorf("Expected player clamped to corner, got %v", w.Player.Pos)
	}
}

func TestPlayerAimsAndFlips(t *testing.T) {
	w := setupWorld()
	p := w.Player.Pos

	w.Step(dt, Input{Aim: p.Add(mgl64.Vec2{0, 10})})
	if math.Abs(w.Player.Rotation-math.Pi/2) > 1e-9 {
		t.Errorf("Expected rotation pi/2, got %v", w.Player.Rotation)
	}

	w.Step(dt, Input{Aim: p.Add(mgl64.Vec2{-10, 0})})
	if w.Player.Scale.Y() != -1 {
		t.Errorf("Expected sprite flipped when aiming left, got %v", w.Player.Scale)
	}
}

func TestFiringRespectsCooldown(t *testing.T) {
	w := setupWorld()
	aim := w.Player.Pos.Add(mgl64.Vec2{100, 0})

	w.Step(dt, Input{Aim: aim, Fire: true})
	w.Step(dt, Input{Aim: aim, Fire: true})
	if len(w.Bullets) != 1 {
		t.Fatalf("Expected 1 bullet within cooldown, got %d", len(w.Bullets))
	}

	f := w.SampleFrame()
	if len(f.Events) != 1 || f.Events[0].Kind != EventShot {
		t.Errorf("Expected one shot event, got %+v", f.Events)
	}
	if again := w.SampleFrame(); len(again.Events) != 0 {
		t.Error("Events should be drained by sampling")
	}
}

func TestBulletKillsEnemy(t *testing.T) {
	w := setupWorld()
	w.cfg.Weapons.BulletDamage = 100
	target := addEnemy(w, w.Player.Pos.Add(mgl64.Vec2{200, 0}))
	id := target.ID

	aim := w.Player.Pos.Add(mgl64.Vec2{200, 0})
	w.Step(dt, Input{Aim: aim, Fire: true})
	for i := 0; i < 30; i++ {
		w.Step(dt, Input{Aim: aim})
	}

	if w.Kills != 1 {
		t.Fatalf("Expected 1 kill, got %d", w.Kills)
	}
	var killed bool
	for _, ev := range w.SampleFrame().Events {
		if ev.Kind == EventEnemyKilled {
			killed = true
		}
	}
	if !killed {
		t.Error("Expected an enemy_killed event")
	}
	for _, e := range w.Enemies {
		if e.ID == id && (e.Alive || e.State != EnemyDead) {
			t.Errorf("Expected enemy dead, got %+v", e)
		}
	}
}

func TestEnemyChasesAndHurtsPlayer(t *testing.T) {
	w := setupWorld()
	e := addEnemy(w, w.Player.Pos.Add(mgl64.Vec2{100, 0}))
	startDist := e.Pos.Sub(w.Player.Pos).Len()

	w.Step(dt, Input{})
	if w.Enemies[0].State != EnemyChase {
		t.Errorf("Expected chase state, got %s", w.Enemies[0].State)
	}
	if d := w.Enemies[0].Pos.Sub(w.Player.Pos).Len(); d >= startDist {
		t.Errorf("Enemy did not approach: %v -> %v", startDist, d)
	}

	for i := 0; i < 60*10 && w.Player.Alive; i++ {
		w.Step(dt, Input{})
	}
	if w.Player.Alive {
		t.Fatal("Expected player to die from contact damage")
	}
}

func TestGrenadeExplodesAfterFuse(t *testing.T) {
	w := setupWorld()
	w.Step(dt, Input{Aim: w.Player.Pos.Add(mgl64.Vec2{1, 0}), Throw: true})
	if len(w.Grenades) != 1 {
		t.Fatalf("Expected a grenade in flight, got %d", len(w.Grenades))
	}
	for i := 0; i < 120; i++ {
		w.Step(dt, Input{})
	}
	if len(w.Grenades) != 0 {
		t.Error("Expected grenade to have exploded")
	}

	var exploded bool
	for _, ev := range w.SampleFrame().Events {
		if ev.Kind == EventExplosion {
			exploded = true
			if ev.Magnitude != w.cfg.Weapons.GrenadeRadius {
				t.Errorf("Expected explosion magnitude %v, got %v", w.cfg.Weapons.GrenadeRadius, ev.Magnitude)
			}
		}
	}
	if !exploded {
		t.Error("Expected explosion event")
	}
}

func TestSampleFrameDoesNotAliasWorld(t *testing.T) {
	w := setupWorld()
	addEnemy(w, mgl64.Vec2{10, 10})
	f := w.SampleFrame()

	w.Enemies[0].Health = 0
	w.Player.Pos[0] = -50
	if f.Enemies[0].Health != w.cfg.Enemies.MaxHealth {
		t.Error("Frame enemy aliased world enemy")
	}
	if f.PlayerPosition.X() == -50 {
		t.Error("Frame player position aliased world")
	}
}

func TestApplyFrameRoundTrip(t *testing.T) {
	w := setupWorld()
	addEnemy(w, mgl64.Vec2{10, 10})
	w.Step(dt, Input{Aim: w.Player.Pos.Add(mgl64.Vec2{5, 5}), Fire: true})
	f := w.SampleFrame()
	f.Time = 1

	other := setupWorld()
	other.ApplyFrame(f)
	if other.Player.Pos != f.PlayerPosition || other.Player.Rotation != f.PlayerRotation {
		t.Error("Player state not applied")
	}
	if len(other.Enemies) != 1 || other.Enemies[0].Pos != (mgl64.Vec2{10, 10}) {
		t.Errorf("Enemies not applied: %+v", other.Enemies)
	}
	if len(other.Bullets) != 1 {
		t.Errorf("Expected 1 bullet, got %d", len(other.Bullets))
	}
	if len(other.Effects) != 1 {
		t.Fatalf("Expected one effect from the shot event, got %d", len(other.Effects))
	}

	// Re-applying the same frame must not duplicate effects.
	other.ApplyFrame(f)
	if len(other.Effects) != 1 {
		t.Errorf("Expected effects not duplicated, got %d", len(other.Effects))
	}
}

func TestWorldRecordsIntoSession(t *testing.T) {
	w := setupWorld()
	s := replay.NewSession(w)
	s.StartRecording()

	aim := w.Player.Pos.Add(mgl64.Vec2{100, 0})
	for i := 0; i < 30; i++ {
		w.Step(dt, Input{Move: mgl64.Vec2{1, 0}, Aim: aim, Fire: true})
		s.Step(dt)
	}
	s.StopRecording()

	frames := s.Frames()
	if len(frames) != 30 {
		t.Fatalf("Expected 30 frames, got %d", len(frames))
	}
	if frames[29].PlayerPosition.X() <= frames[0].PlayerPosition.X() {
		t.Error("Expected recorded player to move right")
	}

	shots := 0
	for _, f := range frames {
		for _, ev := range f.Events {
			if ev.Kind == EventShot {
				shots++
			}
		}
	}
	if shots < 2 {
		t.Errorf("Expected several recorded shots, got %d", shots)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	w := setupWorld()
	addEnemy(w, mgl64.Vec2{1, 1})
	c := w.Clone()

	c.Enemies[0].Health = 0
	c.Player.Pos = mgl64.Vec2{}
	if w.Enemies[0].Health == 0 || w.Player.Pos == (mgl64.Vec2{}) {
		t.Error("Clone shares state with the original")
	}
}

func TestLerpFrame(t *testing.T) {
	a := replay.Frame{
		Time:           1,
		PlayerPosition: mgl64.Vec2{0, 0},
		PlayerRotation: math.Pi - 0.1,
		Enemies:        []replay.EnemySnapshot{{ID: 1, Position: mgl64.Vec2{0, 0}, Alive: true}},
		Bullets:        []replay.ProjectileSnapshot{{ID: 5, Position: mgl64.Vec2{0, 0}}},
	}
	b := replay.Frame{
		Time:           2,
		PlayerPosition: mgl64.Vec2{10, 20},
		PlayerRotation: -math.Pi + 0.1,
		Enemies:        []replay.EnemySnapshot{{ID: 1, Position: mgl64.Vec2{4, 0}, Alive: true}},
		Bullets:        []replay.ProjectileSnapshot{{ID: 5, Position: mgl64.Vec2{8, 0}}},
	}

	got := LerpFrame(a, b, 0.5)
	if got.Time != 1 {
		t.Errorf("Expected time of the earlier frame, got %v", got.Time)
	}
	if got.PlayerPosition != (mgl64.Vec2{5, 10}) {
		t.Errorf("Expected player at (5,10), got %v", got.PlayerPosition)
	}
	// The short way round from pi-0.1 to -pi+0.1 passes through pi.
	if math.Abs(math.Abs(got.PlayerRotation)-math.Pi) > 1e-9 {
		t.Errorf("Expected rotation near pi, got %v", got.PlayerRotation)
	}
	if got.Enemies[0].Position != (mgl64.Vec2{2, 0}) {
		t.Errorf("Expected enemy at (2,0), got %v", got.Enemies[0].Position)
	}
	if got.Bullets[0].Position != (mgl64.Vec2{4, 0}) {
		t.Errorf("Expected bullet at (4,0), got %v", got.Bullets[0].Position)
	}
	if a.PlayerPosition != (mgl64.Vec2{0, 0}) || a.Enemies[0].Position != (mgl64.Vec2{0, 0}) {
		t.Error("LerpFrame modified its input")
	}

	end := LerpFrame(a, b, 1)
	if end.Time != 2 || end.PlayerPosition != b.PlayerPosition {
		t.Errorf("Expected b at alpha 1, got %+v", end)
	}
}
