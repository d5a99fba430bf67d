// Package store persists giveaway records as one JSON snapshot file,
// read whole at startup and rewritten whole after every mutation.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/giveaway/models"
)

// Store is the durable mapping from giveaway id to record.
type Store interface {
	LoadAll() (map[string]*models.Giveaway, error)
	SaveAll(records map[string]*models.Giveaway) error
}

type fileStore struct {
	path string
}

// NewFileStore creates a snapshot store at path. The parent directory
// is created on the first save.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

// LoadAll reads the snapshot. A missing or empty file yields an empty
// mapping; an unparseable file yields an empty mapping and a warning,
// never a startup failure.
func (s *fileStore) LoadAll() (map[string]*models.Giveaway, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.Giveaway{}, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return map[string]*models.Giveaway{}, nil
	}

	var records map[string]*models.Giveaway
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("Giveaway snapshot is corrupt, starting empty")
		return map[string]*models.Giveaway{}, nil
	}
	if records == nil {
		records = map[string]*models.Giveaway{}
	}

	// Dedup on read: older snapshots may carry duplicate entrants.
	for _, rec := range records {
		rec.Entrants = rec.DistinctEntrants()
	}

	return records, nil
}

// SaveAll rewrites the whole snapshot. The write goes to a temp file in
// the same directory followed by a rename so a crash mid-write never
// leaves a half-written snapshot visible.
func (s *fileStore) SaveAll(records map[string]*models.Giveaway) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".giveaways-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}
