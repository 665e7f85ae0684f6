package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Fields is one metric's persisted value bundle for one ISO week.
type Fields map[string]any

// Collection is the full persisted snapshot set: week label -> metric name
// -> value bundle.
type Collection map[string]map[string]Fields

// Backend is the durable side of the snapshot store. Store always rewrites
// the whole collection; per-key persistence is deliberately not part of the
// contract (see batch mode).
type Backend interface {
	Load(workspaceID string) (Collection, error)
	Store(workspaceID string, col Collection) error
}

// Clone deep-copies a collection so cache and batch state never alias.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for week, metrics := range c {
		out[week] = make(map[string]Fields, len(metrics))
		for metric, fields := range metrics {
			out[week][metric] = fields.Clone()
		}
	}
	return out
}

// Clone shallow-copies the bundle's top level, which is enough because the
// store never mutates nested values in place.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FileBackend persists one JSON document per workspace, written atomically
// via a temp file rename.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(workspaceID string) string {
	return filepath.Join(b.dir, fmt.Sprintf("%s.snapshots.json", workspaceID))
}

// Load reads the workspace's snapshot collection. A missing file is an empty
// collection, not an error.
func (b *FileBackend) Load(workspaceID string) (Collection, error) {
	data, err := os.ReadFile(b.path(workspaceID))
	if err != nil {
		if os.IsNotExist(err) {
			return Collection{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var col Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}
	if col == nil {
		col = Collection{}
	}
	return col, nil
}

// Store writes the full collection, replacing any prior content.
func (b *FileBackend) Store(workspaceID string, col Collection) error {
	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshots: %w", err)
	}

	path := b.path(workspaceID)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	log.Debug().Str("workspace", workspaceID).Int("weeks", len(col)).Msg("Snapshots saved to file")
	return nil
}
