package kb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/signalsfoundry/coverage-planner/model"
)

// snapshotVersion is bumped whenever the on-disk layout changes.
const snapshotVersion = 1

type snapshot struct {
	Version  int             `msgpack:"v"`
	Missions []model.Mission `msgpack:"missions"`
}

// WriteSnapshot writes every stored mission to w as zstd-compressed
// msgpack.
func (s *MissionStore) WriteSnapshot(w io.Writer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	snap := snapshot{Version: snapshotVersion, Missions: s.all()}
	if err := msgpack.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot replaces the store contents with the missions in r.
// Subscribers are not notified.
func (s *MissionStore) ReadSnapshot(r io.Reader) error {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return err
	}
	defer zr.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	for i := range snap.Missions {
		if err := validate(&snap.Missions[i]); err != nil {
			return fmt.Errorf("snapshot mission %d: %w", i, err)
		}
	}
	s.replaceAll(snap.Missions)
	return nil
}

// SaveFile writes a snapshot to path, replacing it atomically.
func (s *MissionStore) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".missions-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := s.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a snapshot from path. A missing file leaves the store
// untouched and is not an error.
func (s *MissionStore) LoadFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.ReadSnapshot(f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
