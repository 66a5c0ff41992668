package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"RiskPulse/internal/domain/models"
)

// FileObservations persists each module's bounded observation tail as a JSON
// snapshot so a run starts from where the previous one left off even when a
// provider serves only recent points.
type FileObservations struct {
	dir string
}

// NewFileObservations creates the state directory if needed.
func NewFileObservations(dir string) (*FileObservations, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return &FileObservations{dir: dir}, nil
}

func (f *FileObservations) path(module string) string {
	return filepath.Join(f.dir, sanitize(module)+"__observations.json")
}

// Load returns the module's persisted series. Missing and unparseable
// snapshots both yield an empty map: the snapshot is a warm-start cache, the
// next fetch rebuilds it.
func (f *FileObservations) Load(_ context.Context, module string) (map[string][]models.Observation, error) {
	b, err := os.ReadFile(f.path(module))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]models.Observation{}, nil
		}
		return map[string][]models.Observation{}, fmt.Errorf("read observations: %w", err)
	}
	var series map[string][]models.Observation
	if err := json.Unmarshal(b, &series); err != nil {
		return map[string][]models.Observation{}, fmt.Errorf("parse observations: %w", err)
	}
	return series, nil
}

// Save writes the snapshot with the backup-then-replace discipline.
func (f *FileObservations) Save(_ context.Context, module string, series map[string][]models.Observation) error {
	return replaceFile(f.path(module), func() ([]byte, error) {
		return json.MarshalIndent(series, "", "  ")
	})
}
