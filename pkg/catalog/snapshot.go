package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/meridiandb/meridian/pkg/scope"
)

// BootstrapRecordName is the file name of the bootstrap record inside the
// snapshot directory.
const BootstrapRecordName = "identity.yaml"

// FileSnapshotReader reads the bootstrap record from the instance's snapshot
// directory.
type FileSnapshotReader struct{}

// NewFileSnapshotReader creates a snapshot reader over the local filesystem.
func NewFileSnapshotReader() *FileSnapshotReader {
	return &FileSnapshotReader{}
}

// GetPath derives the bootstrap record path from snapshot.dir in the
// defaulted option tree. It reports false when the record does not exist,
// which the resolver treats as the fresh bootstrap path.
func (r *FileSnapshotReader) GetPath(tree scope.Tree) (string, bool) {
	dir, ok := tree.GetString("snapshot.dir")
	if !ok || dir == "" {
		return "", false
	}
	path := filepath.Join(dir, BootstrapRecordName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// GetNames reads and parses the bootstrap record.
func (r *FileSnapshotReader) GetNames(_ context.Context, path string) (*SavedIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bootstrap record %s: %w", path, err)
	}

	var saved SavedIdentity
	if err := yaml.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse bootstrap record %s: %w", path, err)
	}
	return &saved, nil
}

// WriteBootstrapRecord persists a bootstrap record into the given snapshot
// directory. It is used by the apply stage after a successful bootstrap and
// by tests.
func WriteBootstrapRecord(dir string, saved *SavedIdentity) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := yaml.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to encode bootstrap record: %w", err)
	}

	path := filepath.Join(dir, BootstrapRecordName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bootstrap record %s: %w", path, err)
	}
	return nil
}
