package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"chosenoffset.com/topdown/internal/replay"
)

// Load reads the replay stored at path.
func (s *ReplayService) Load(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ReadHeader reads and checks the fixed header without touching the body.
func ReadHeader(r io.Reader) (FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return header, ErrInvalidMagic
	}
	if header.Version != Version1 {
		return header, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, header.Version, Version1)
	}
	if header.BodyLen > maxBodyLen {
		return header, fmt.Errorf("replay body too large: %d bytes", header.BodyLen)
	}
	if header.FrameCount < 0 {
		return header, fmt.Errorf("negative frame count: %d", header.FrameCount)
	}
	return header, nil
}

// Decode reads a replay written by Encode. Frame times are checked for
// ordering only; the session loading the frames enforces its own duration
// limit.
func Decode(r io.Reader) (*Replay, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	body := make([]byte, header.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if xxh3.Hash(body) != header.Checksum {
		return nil, ErrChecksumMismatch
	}

	raw, err := decompress(body, maxDecodedLen)
	if err != nil {
		return nil, err
	}

	var recs []frameRecord
	if err := cbor.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode frames: %w", err)
	}
	if len(recs) != int(header.FrameCount) {
		return nil, fmt.Errorf("frame count mismatch: header %d, body %d", header.FrameCount, len(recs))
	}

	frames := fromRecords(recs)
	if err := replay.ValidateFrames(frames, math.Inf(1)); err != nil {
		return nil, err
	}

	return &Replay{
		ID:         header.ID,
		RecordedAt: time.UnixMilli(header.RecordedAt),
		Frames:     frames,
	}, nil
}

// decompress inflates a zstd body, refusing output larger than limit bytes.
func decompress(body []byte, limit uint64) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress body: %w", err)
	}
	return raw, nil
}
