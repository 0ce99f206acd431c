package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"chosenoffset.com/topdown/internal/replay"
)

// Save writes r into the service directory as replay_<id>.tdrp and returns
// the file path.
func (s *ReplayService) Save(r *Replay) (string, error) {
	path := filepath.Join(s.Dir, FileName(r))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create replay file: %w", err)
	}

	w := bufio.NewWriter(f)
	err = Encode(w, r)
	if err == nil {
		if ferr := w.Flush(); ferr != nil {
			err = fmt.Errorf("flush replay file: %w", ferr)
		}
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close replay file: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			s.log.WithError(rerr).WithField("path", path).Warn("Failed to remove partial replay")
		}
		return "", err
	}

	s.log.WithField("path", path).WithField("frames", len(r.Frames)).Info("Replay saved")
	return path, nil
}

// FileName is the file name Save uses for r.
func FileName(r *Replay) string {
	return "replay_" + r.ID.String() + FileExt
}

// Encode writes r in the .tdrp format. Frames out of time order are
// rejected.
func Encode(w io.Writer, r *Replay) error {
	if err := replay.ValidateFrames(r.Frames, math.Inf(1)); err != nil {
		return err
	}
	return encodeFrames(w, r)
}

func encodeFrames(w io.Writer, r *Replay) error {
	raw, err := cbor.Marshal(toRecords(r.Frames))
	if err != nil {
		return fmt.Errorf("failed to encode frames: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	body := enc.EncodeAll(raw, nil)
	enc.Close()

	if len(body) > maxBodyLen {
		return fmt.Errorf("replay body too large: %d bytes", len(body))
	}

	header := FileHeader{
		Version:    Version1,
		ID:         r.ID,
		RecordedAt: r.RecordedAt.UnixMilli(),
		FrameCount: int32(len(r.Frames)),
		Duration:   r.Duration(),
		BodyLen:    uint32(len(body)),
		Checksum:   xxh3.Hash(body),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	return nil
}
