package simulation

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"chosenoffset.com/topdown/internal/replay"
)

// Event kinds recorded into replay frames.
const (
	EventShot          = "shot"
	EventGrenadeThrown = "grenade_thrown"
	EventExplosion     = "explosion"
	EventEnemyHit      = "enemy_hit"
	EventEnemyKilled   = "enemy_killed"
	EventPlayerDied    = "player_died"
)

// Enemy AI states.
const (
	EnemyIdle  = "idle"
	EnemyChase = "chase"
	EnemyDead  = "dead"
)

// EffectDuration is how long a visual effect stays on screen, in seconds.
const EffectDuration = 0.4

// Input is the player's intent for one tick.
type Input struct {
	Move  mgl64.Vec2 // Desired direction, normalized by the world
	Aim   mgl64.Vec2 // World point the player faces
	Fire  bool
	Throw bool
}

// Player is the controlled character.
type Player struct {
	Pos      mgl64.Vec2
	Rotation float64    // Radians, 0 faces +X
	Scale    mgl64.Vec2 // Sprite scale; Y flips when aiming left
	Health   float64
	Alive    bool

	fireCooldown    float64
	grenadeCooldown float64
}

// Enemy is a hostile that chases the player on sight.
type Enemy struct {
	ID       int
	Pos      mgl64.Vec2
	Rotation float64
	Health   float64
	Alive    bool
	State    string

	respawnIn float64
}

// Projectile is a bullet or grenade in flight.
type Projectile struct {
	ID       int
	Pos      mgl64.Vec2
	Vel      mgl64.Vec2
	Rotation float64
	Life     float64 // Bullet lifetime or grenade fuse, in seconds
}

// Effect is a short-lived visual marker for a recorded event.
type Effect struct {
	Kind     string
	Pos      mgl64.Vec2
	Radius   float64
	TimeLeft float64
}

// World is the arena simulation. It produces replay frames while live and
// displays them during playback.
type World struct {
	cfg *Config
	rng *rand.Rand

	Player   Player
	Enemies  []Enemy
	Bullets  []Projectile
	Grenades []Projectile
	Effects  []Effect

	Time  float64 // Seconds simulated since the last reset
	Kills int

	nextID      int
	pending     []replay.EventRecord
	lastApplied float64
}

// NewWorld creates an arena populated according to cfg.
func NewWorld(cfg *Config, rng *rand.Rand) *World {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	w := &World{cfg: cfg, rng: rng}
	w.Reset()
	return w
}

// Config returns the rules the world runs with.
func (w *World) Config() *Config {
	return w.cfg
}

// Reset puts the player in the centre and respawns every enemy.
func (w *World) Reset() {
	w.Player = Player{
		Pos:    mgl64.Vec2{w.cfg.Arena.Width / 2, w.cfg.Arena.Height / 2},
		Scale:  mgl64.Vec2{1, 1},
		Health: w.cfg.Player.MaxHealth,
		Alive:  true,
	}
	w.Enemies = w.Enemies[:0]
	w.Bullets = nil
	w.Grenades = nil
	w.Effects = nil
	w.pending = nil
	w.Time = 0
	w.Kills = 0
	w.lastApplied = -1

	for i := 0; i < w.cfg.Enemies.Count; i++ {
		e := Enemy{ID: w.newID()}
		w.spawnEnemy(&e)
		w.Enemies = append(w.Enemies, e)
	}
}

func (w *World) newID() int {
	w.nextID++
	return w.nextID
}

// spawnEnemy places e at a random point on the arena edge.
func (w *World) spawnEnemy(e *Enemy) {
	width, height := w.cfg.Arena.Width, w.cfg.Arena.Height
	var pos mgl64.Vec2
	switch w.rng.Intn(4) {
	case 0:
		pos = mgl64.Vec2{w.rng.Float64() * width, 0}
	case 1:
		pos = mgl64.Vec2{w.rng.Float64() * width, height}
	case 2:
		pos = mgl64.Vec2{0, w.rng.Float64() * height}
	default:
		pos = mgl64.Vec2{width, w.rng.Float64() * height}
	}
	e.Pos = pos
	e.Health = w.cfg.Enemies.MaxHealth
	e.Alive = true
	e.State = EnemyIdle
	e.respawnIn = 0
}

func (w *World) emit(kind string, pos mgl64.Vec2, magnitude float64) {
	w.pending = append(w.pending, replay.EventRecord{Kind: kind, Position: pos, Magnitude: magnitude})
	w.addEffect(kind, pos, magnitude)
}

func (w *World) addEffect(kind string, pos mgl64.Vec2, magnitude float64) {
	radius := 6.0
	if kind == EventExplosion {
		radius = magnitude
	}
	w.Effects = append(w.Effects, Effect{Kind: kind, Pos: pos, Radius: radius, TimeLeft: EffectDuration})
}

// Step advances the live simulation by dt seconds.
func (w *World) Step(dt float64, in Input) {
	w.Time += dt
	w.updatePlayer(dt, in)
	w.updateEnemies(dt)
	w.updateBullets(dt)
	w.updateGrenades(dt)
	w.UpdateEffects(dt)
}

func (w *World) updatePlayer(dt float64, in Input) {
	p := &w.Player
	if !p.Alive {
		return
	}

	if in.Move.Len() > 0 {
		p.Pos = p.Pos.Add(in.Move.Normalize().Mul(w.cfg.Player.Speed * dt))
		p.Pos = w.clampToArena(p.Pos)
	}

	aim := in.Aim.Sub(p.Pos)
	if aim.Len() > 0 {
		p.Rotation = math.Atan2(aim.Y(), aim.X())
	}
	p.Scale = mgl64.Vec2{1, 1}
	if math.Cos(p.Rotation) < 0 {
		p.Scale = mgl64.Vec2{1, -1}
	}

	p.fireCooldown -= dt
	p.grenadeCooldown -= dt
	facing := mgl64.Vec2{math.Cos(p.Rotation), math.Sin(p.Rotation)}

	if in.Fire && p.fireCooldown <= 0 {
		p.fireCooldown = w.cfg.Weapons.FireInterval
		muzzle := p.Pos.Add(facing.Mul(w.cfg.Player.Radius))
		w.Bullets = append(w.Bullets, Projectile{
			ID:       w.newID(),
			Pos:      muzzle,
			Vel:      facing.Mul(w.cfg.Weapons.BulletSpeed),
			Rotation: p.Rotation,
			Life:     w.cfg.Weapons.BulletLifetime,
		})
		w.emit(EventShot, muzzle, 1)
	}

	if in.Throw && p.grenadeCooldown <= 0 {
		p.grenadeCooldown = w.cfg.Weapons.GrenadeCooldown
		w.Grenades = append(w.Grenades, Projectile{
			ID:       w.newID(),
			Pos:      p.Pos,
			Vel:      facing.Mul(w.cfg.Weapons.GrenadeSpeed),
			Rotation: p.Rotation,
			Life:     w.cfg.Weapons.GrenadeFuse,
		})
		w.emit(EventGrenadeThrown, p.Pos, 1)
	}
}

func (w *World) updateEnemies(dt float64) {
	p := &w.Player
	touch := w.cfg.Player.Radius + w.cfg.Enemies.Radius

	for i := range w.Enemies {
		e := &w.Enemies[i]
		if !e.Alive {
			e.respawnIn -= dt
			if e.respawnIn <= 0 {
				w.spawnEnemy(e)
			}
			continue
		}

		toPlayer := p.Pos.Sub(e.Pos)
		dist := toPlayer.Len()
		if !p.Alive || dist > w.cfg.Enemies.SightRange {
			e.State = EnemyIdle
			continue
		}

		e.State = EnemyChase
		if dist > 0 {
			e.Rotation = math.Atan2(toPlayer.Y(), toPlayer.X())
		}
		if dist > touch {
			step := math.Min(w.cfg.Enemies.Speed*dt, dist-touch)
			e.Pos = e.Pos.Add(toPlayer.Normalize().Mul(step))
			continue
		}

		p.Health -= w.cfg.Enemies.ContactDamage * dt
		if p.Health <= 0 {
			p.Health = 0
			p.Alive = false
			w.emit(EventPlayerDied, p.Pos, 1)
		}
	}
}

func (w *World) updateBullets(dt float64) {
	kept := w.Bullets[:0]
	for _, b := range w.Bullets {
		b.Pos = b.Pos.Add(b.Vel.Mul(dt))
		b.Life -= dt
		if b.Life <= 0 || !w.inArena(b.Pos) {
			continue
		}
		if e := w.enemyAt(b.Pos); e != nil {
			w.damageEnemy(e, w.cfg.Weapons.BulletDamage)
			continue
		}
		kept = append(kept, b)
	}
	w.Bullets = kept
}

func (w *World) updateGrenades(dt float64) {
	friction := math.Max(0, 1-w.cfg.Weapons.GrenadeFriction*dt)
	kept := w.Grenades[:0]
	for _, g := range w.Grenades {
		g.Pos = w.clampToArena(g.Pos.Add(g.Vel.Mul(dt)))
		g.Vel = g.Vel.Mul(friction)
		g.Life -= dt
		if g.Life <= 0 {
			w.explode(g.Pos)
			continue
		}
		kept = append(kept, g)
	}
	w.Grenades = kept
}

func (w *World) explode(pos mgl64.Vec2) {
	radius := w.cfg.Weapons.GrenadeRadius
	w.emit(EventExplosion, pos, radius)
	for i := range w.Enemies {
		e := &w.Enemies[i]
		if !e.Alive {
			continue
		}
		d := e.Pos.Sub(pos).Len()
		if d >= radius {
			continue
		}
		w.damageEnemy(e, w.cfg.Weapons.GrenadeDamage*(1-d/radius))
	}
}

func (w *World) damageEnemy(e *Enemy, amount float64) {
	e.Health -= amount
	w.emit(EventEnemyHit, e.Pos, amount)
	if e.Health > 0 {
		return
	}
	e.Health = 0
	e.Alive = false
	e.State = EnemyDead
	e.respawnIn = w.cfg.Enemies.RespawnDelay
	w.Kills++
	w.emit(EventEnemyKilled, e.Pos, 1)
}

func (w *World) enemyAt(pos mgl64.Vec2) *Enemy {
	for i := range w.Enemies {
		e := &w.Enemies[i]
		if e.Alive && e.Pos.Sub(pos).Len() <= w.cfg.Enemies.Radius {
			return e
		}
	}
	return nil
}

func (w *World) inArena(pos mgl64.Vec2) bool {
	return pos.X() >= 0 && pos.Y() >= 0 && pos.X() <= w.cfg.Arena.Width && pos.Y() <= w.cfg.Arena.Height
}

func (w *World) clampToArena(pos mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		mgl64.Clamp(pos.X(), 0, w.cfg.Arena.Width),
		mgl64.Clamp(pos.Y(), 0, w.cfg.Arena.Height),
	}
}

// UpdateEffects fades visual effects. It runs during playback too, when Step
// does not.
func (w *World) UpdateEffects(dt float64) {
	kept := w.Effects[:0]
	for _, fx := range w.Effects {
		fx.TimeLeft -= dt
		if fx.TimeLeft > 0 {
			kept = append(kept, fx)
		}
	}
	w.Effects = kept
}

// Clone returns a deep copy of the world. The copy shares the random source.
func (w *World) Clone() *World {
	c := *w
	c.Enemies = append([]Enemy(nil), w.Enemies...)
	c.Bullets = append([]Projectile(nil), w.Bullets...)
	c.Grenades = append([]Projectile(nil), w.Grenades...)
	c.Effects = append([]Effect(nil), w.Effects...)
	c.pending = append([]replay.EventRecord(nil), w.pending...)
	return &c
}
