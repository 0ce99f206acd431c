package simulation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/topdown/internal/replay"
)

var (
	_ replay.Sampler = (*World)(nil)
	_ replay.Applier = (*World)(nil)
)

// SampleFrame captures the world for recording and drains the events
// emitted since the previous sample. The returned frame shares nothing with
// the world.
func (w *World) SampleFrame() replay.Frame {
	p := w.Player
	f := replay.Frame{
		PlayerPosition:   p.Pos,
		PlayerRotation:   p.Rotation,
		PlayerModelScale: p.Scale,
		PlayerAlive:      p.Alive,
		Enemies:          make([]replay.EnemySnapshot, len(w.Enemies)),
		Bullets:          snapshotProjectiles(w.Bullets),
		Grenades:         snapshotProjectiles(w.Grenades),
		Events:           w.pending,
	}
	for i, e := range w.Enemies {
		f.Enemies[i] = replay.EnemySnapshot{
			ID:       e.ID,
			Position: e.Pos,
			Rotation: e.Rotation,
			Health:   e.Health,
			Alive:    e.Alive,
			State:    e.State,
		}
	}
	w.pending = nil
	return f
}

func snapshotProjectiles(ps []Projectile) []replay.ProjectileSnapshot {
	out := make([]replay.ProjectileSnapshot, len(ps))
	for i, p := range ps {
		out[i] = replay.ProjectileSnapshot{
			ID:       p.ID,
			Position: p.Pos,
			Velocity: p.Vel,
			Rotation: p.Rotation,
			Fuse:     p.Life,
		}
	}
	return out
}

// ApplyFrame replaces the visible world state with a recorded frame. Events
// in the frame become effects the first time that frame is applied.
func (w *World) ApplyFrame(f replay.Frame) {
	w.Player.Pos = f.PlayerPosition
	w.Player.Rotation = f.PlayerRotation
	w.Player.Scale = f.PlayerModelScale
	w.Player.Alive = f.PlayerAlive

	w.Enemies = w.Enemies[:0]
	for _, e := range f.Enemies {
		w.Enemies = append(w.Enemies, Enemy{
			ID:       e.ID,
			Pos:      e.Position,
			Rotation: e.Rotation,
			Health:   e.Health,
			Alive:    e.Alive,
			State:    e.State,
		})
	}
	w.Bullets = restoreProjectiles(w.Bullets[:0], f.Bullets)
	w.Grenades = restoreProjectiles(w.Grenades[:0], f.Grenades)

	if f.Time != w.lastApplied {
		for _, ev := range f.Events {
			w.addEffect(ev.Kind, ev.Position, ev.Magnitude)
		}
		w.lastApplied = f.Time
	}
}

func restoreProjectiles(dst []Projectile, src []replay.ProjectileSnapshot) []Projectile {
	for _, p := range src {
		dst = append(dst, Projectile{
			ID:       p.ID,
			Pos:      p.Position,
			Vel:      p.Velocity,
			Rotation: p.Rotation,
			Life:     p.Fuse,
		})
	}
	return dst
}

// LerpFrame blends positions and rotations of two consecutive frames by
// alpha in [0, 1]. Entities are matched by ID; anything missing from b keeps
// its position from a. Time and events stay those of a, so applying the blend
// over several ticks triggers a's events once; at alpha 1 the result is b.
func LerpFrame(a, b replay.Frame, alpha float64) replay.Frame {
	if alpha >= 1 {
		return b.Clone()
	}
	out := a.Clone()
	out.PlayerPosition = lerpVec(a.PlayerPosition, b.PlayerPosition, alpha)
	out.PlayerRotation = lerpAngle(a.PlayerRotation, b.PlayerRotation, alpha)

	enemies := make(map[int]replay.EnemySnapshot, len(b.Enemies))
	for _, e := range b.Enemies {
		enemies[e.ID] = e
	}
	for i, e := range out.Enemies {
		next, ok := enemies[e.ID]
		if !ok || !e.Alive || !next.Alive {
			continue
		}
		out.Enemies[i].Position = lerpVec(e.Position, next.Position, alpha)
		out.Enemies[i].Rotation = lerpAngle(e.Rotation, next.Rotation, alpha)
	}

	lerpProjectiles(out.Bullets, b.Bullets, alpha)
	lerpProjectiles(out.Grenades, b.Grenades, alpha)
	return out
}

func lerpProjectiles(dst, next []replay.ProjectileSnapshot, alpha float64) {
	byID := make(map[int]replay.ProjectileSnapshot, len(next))
	for _, p := range next {
		byID[p.ID] = p
	}
	for i, p := range dst {
		if n, ok := byID[p.ID]; ok {
			dst[i].Position = lerpVec(p.Position, n.Position, alpha)
		}
	}
}

func lerpVec(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// lerpAngle interpolates along the shorter arc.
func lerpAngle(a, b, t float64) float64 {
	diff := math.Remainder(b-a, 2*math.Pi)
	return a + diff*t
}

// DiscardEvents drops events that no recording will sample.
func (w *World) DiscardEvents() {
	w.pending = nil
}
