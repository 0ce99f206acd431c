// Package storage persists recorded replays as .tdrp files.
//
// A file is a fixed little-endian header followed by a zstd-compressed CBOR
// body holding the frames. The header alone is enough to list a replay.
package storage

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oklog/ulid/v2"

	"chosenoffset.com/topdown/internal/replay"
)

const (
	MagicHeader string = `TDRP`
	Version1    uint32 = 1

	// FileExt is the extension of replay files in a replay directory.
	FileExt = ".tdrp"

	maxBodyLen = 256 << 20
	// maxDecodedLen bounds the decompressed frame data.
	maxDecodedLen = 1 << 30
)

var (
	ErrInvalidMagic       = errors.New("invalid replay magic")
	ErrUnsupportedVersion = errors.New("unsupported replay version")
	ErrChecksumMismatch   = errors.New("replay checksum mismatch")
)

// FileHeader is the exact on-disk layout of the header. It holds only fixed
// size fields so binary.Read and binary.Write handle it in one call.
type FileHeader struct {
	Magic      [4]byte
	Version    uint32
	ID         [16]byte // ULID
	RecordedAt int64    // Unix milliseconds
	FrameCount int32
	Duration   float64 // Seconds, time of the last frame
	BodyLen    uint32
	Checksum   uint64 // xxh3 of the compressed body
}

// Replay is a recording together with its identity.
type Replay struct {
	ID         ulid.ULID
	RecordedAt time.Time
	Frames     []replay.Frame
}

// NewReplay wraps frames in a Replay with a fresh ID stamped now.
func NewReplay(frames []replay.Frame) *Replay {
	now := time.Now()
	return &Replay{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		RecordedAt: now,
		Frames:     frames,
	}
}

// Duration is the time of the last frame, or 0 for an empty replay.
func (r *Replay) Duration() float64 {
	if len(r.Frames) == 0 {
		return 0
	}
	return r.Frames[len(r.Frames)-1].Time
}

// frameRecord is the body encoding of one frame. Encoded as a CBOR array to
// keep field names out of every frame.
type frameRecord struct {
	_ struct{} `cbor:",toarray"`

	Time     float64
	Position [2]float64
	Rotation float64
	Scale    [2]float64
	Alive    bool
	Enemies  []enemyRecord
	Bullets  []projectileRecord
	Grenades []projectileRecord
	Events   []eventRecord
}

type enemyRecord struct {
	_ struct{} `cbor:",toarray"`

	ID       int
	Position [2]float64
	Rotation float64
	Health   float64
	Alive    bool
	State    string
}

type projectileRecord struct {
	_ struct{} `cbor:",toarray"`

	ID       int
	Position [2]float64
	Velocity [2]float64
	Rotation float64
	Fuse     float64
}

type eventRecord struct {
	_ struct{} `cbor:",toarray"`

	Kind      string
	Position  [2]float64
	Magnitude float64
}

func toRecords(frames []replay.Frame) []frameRecord {
	out := make([]frameRecord, len(frames))
	for i, f := range frames {
		rec := frameRecord{
			Time:     f.Time,
			Position: f.PlayerPosition,
			Rotation: f.PlayerRotation,
			Scale:    f.PlayerModelScale,
			Alive:    f.PlayerAlive,
			Bullets:  toProjectileRecords(f.Bullets),
			Grenades: toProjectileRecords(f.Grenades),
		}
		for _, e := range f.Enemies {
			rec.Enemies = append(rec.Enemies, enemyRecord{
				ID:       e.ID,
				Position: e.Position,
				Rotation: e.Rotation,
				Health:   e.Health,
				Alive:    e.Alive,
				State:    e.State,
			})
		}
		for _, ev := range f.Events {
			rec.Events = append(rec.Events, eventRecord{Kind: ev.Kind, Position: ev.Position, Magnitude: ev.Magnitude})
		}
		out[i] = rec
	}
	return out
}

func toProjectileRecords(ps []replay.ProjectileSnapshot) []projectileRecord {
	var out []projectileRecord
	for _, p := range ps {
		out = append(out, projectileRecord{
			ID:       p.ID,
			Position: p.Position,
			Velocity: p.Velocity,
			Rotation: p.Rotation,
			Fuse:     p.Fuse,
		})
	}
	return out
}

func fromRecords(recs []frameRecord) []replay.Frame {
	out := make([]replay.Frame, len(recs))
	for i, rec := range recs {
		f := replay.Frame{
			Time:             rec.Time,
			PlayerPosition:   mgl64.Vec2(rec.Position),
			PlayerRotation:   rec.Rotation,
			PlayerModelScale: mgl64.Vec2(rec.Scale),
			PlayerAlive:      rec.Alive,
			Bullets:          fromProjectileRecords(rec.Bullets),
			Grenades:         fromProjectileRecords(rec.Grenades),
		}
		for _, e := range rec.Enemies {
			f.Enemies = append(f.Enemies, replay.EnemySnapshot{
				ID:       e.ID,
				Position: mgl64.Vec2(e.Position),
				Rotation: e.Rotation,
				Health:   e.Health,
				Alive:    e.Alive,
				State:    e.State,
			})
		}
		for _, ev := range rec.Events {
			f.Events = append(f.Events, replay.EventRecord{Kind: ev.Kind, Position: mgl64.Vec2(ev.Position), Magnitude: ev.Magnitude})
		}
		out[i] = f
	}
	return out
}

func fromProjectileRecords(recs []projectileRecord) []replay.ProjectileSnapshot {
	var out []replay.ProjectileSnapshot
	for _, p := range recs {
		out = append(out, replay.ProjectileSnapshot{
			ID:       p.ID,
			Position: mgl64.Vec2(p.Position),
			Velocity: mgl64.Vec2(p.Velocity),
			Rotation: p.Rotation,
			Fuse:     p.Fuse,
		})
	}
	return out
}
