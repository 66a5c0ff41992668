// Package repository provides the concrete persistence and delivery
// implementations behind the domain ports.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"RiskPulse/internal/domain/models"
)

// ErrLedgerCorrupt wraps an unreadable or unparseable partition file.
// Callers recover fail-open: corrupted history must never block signal
// emission for the current run.
var ErrLedgerCorrupt = errors.New("ledger corrupt")

// FileLedger persists signal history as one JSON file per
// (module, ruleset_id) partition, written backup-then-replace.
type FileLedger struct {
	dir string
}

// NewFileLedger creates the state directory if needed.
func NewFileLedger(dir string) (*FileLedger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return &FileLedger{dir: dir}, nil
}

func (l *FileLedger) path(module, rulesetID string) string {
	name := fmt.Sprintf("%s__%s.json", sanitize(module), sanitize(rulesetID))
	return filepath.Join(l.dir, name)
}

// Load reads a partition. Missing file means no history yet (empty, nil
// error); a file that exists but cannot be parsed returns ErrLedgerCorrupt
// wrapped so the caller can fail open.
func (l *FileLedger) Load(_ context.Context, module, rulesetID string) ([]models.SignalRecord, error) {
	b, err := os.ReadFile(l.path(module, rulesetID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	var records []models.SignalRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
	}
	return records, nil
}

// Save writes the partition atomically: marshal to a temp file, keep the
// previous file as .bak, rename into place. A crash mid-save leaves either
// the old file or the complete new one, never a torn write.
func (l *FileLedger) Save(_ context.Context, module, rulesetID string, records []models.SignalRecord) error {
	path := l.path(module, rulesetID)
	return replaceFile(path, func() ([]byte, error) {
		return json.MarshalIndent(records, "", "  ")
	})
}

// replaceFile implements the backup-then-replace write pattern shared by the
// ledger, observation snapshots, and reports.
func replaceFile(path string, marshal func() ([]byte, error)) error {
	b, err := marshal()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("backup: %w", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}

// sanitize keeps partition file names shell- and filesystem-safe.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
