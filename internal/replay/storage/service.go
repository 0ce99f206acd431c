package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ReplayService stores replay files in a single directory.
type ReplayService struct {
	Dir string

	log logrus.FieldLogger
}

// Entry describes a stored replay without loading its frames.
type Entry struct {
	Path       string
	ID         ulid.ULID
	RecordedAt time.Time
	Duration   float64
	FrameCount int
}

// NewReplayService returns a service rooted at dir, creating it if needed.
func NewReplayService(dir string, log logrus.FieldLogger) (*ReplayService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create replay directory: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReplayService{Dir: dir, log: log.WithField("component", "replay_storage")}, nil
}

// List returns the replays in the directory, newest first. Only headers are
// read; files with a bad header are skipped.
func (s *ReplayService) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), FileExt) {
			continue
		}

		path := filepath.Join(s.Dir, name)
		header, err := s.readHeaderFile(path)
		if err != nil {
			s.log.WithError(err).WithField("path", path).Warn("Skipping unreadable replay")
			continue
		}

		entries = append(entries, Entry{
			Path:       path,
			ID:         header.ID,
			RecordedAt: time.UnixMilli(header.RecordedAt),
			Duration:   header.Duration,
			FrameCount: int(header.FrameCount),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
			return entries[i].RecordedAt.After(entries[j].RecordedAt)
		}
		return entries[i].ID.Compare(entries[j].ID) > 0
	})
	return entries, nil
}

func (s *ReplayService) readHeaderFile(path string) (FileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileHeader{}, err
	}
	defer f.Close()
	return ReadHeader(bufio.NewReader(f))
}
