package planner

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gmaps-contacts/internal/artifact"
	"github.com/sells-group/gmaps-contacts/internal/model"
)

// Ledger records per-key outcomes for one category and country and keeps a
// key out of both the artifact set and the skip log at the same time.
type Ledger struct {
	layout Layout
}

// NewLedger returns a ledger over layout.
func NewLedger(layout Layout) *Ledger {
	return &Ledger{layout: layout}
}

// Layout returns the ledger's file layout.
func (l *Ledger) Layout() Layout { return l.layout }

// Completed scans the output directory for keys with artifacts.
func (l *Ledger) Completed() (KeySet, error) {
	return ScanOutputDir(l.layout.Dir(), l.layout.Category)
}

// Skipped reads the skip log.
func (l *Ledger) Skipped() (KeySet, error) {
	return ReadSkipLog(l.layout.SkipLogPath(), l.layout.Category)
}

// HasArtifact reports whether the key's result CSV exists.
func (l *Ledger) HasArtifact(key model.WorkKey) (bool, error) {
	return exists(l.layout.ArtifactPath(key.PostalCode))
}

// IsSkipped reports whether the key is in the skip log.
func (l *Ledger) IsSkipped(key model.WorkKey) (bool, error) {
	skipped, err := l.Skipped()
	if err != nil {
		return false, err
	}
	return skipped.Has(key), nil
}

// RollupExists reports whether the state's aggregate CSV exists.
func (l *Ledger) RollupExists(state string) (bool, error) {
	return exists(l.layout.RollupPath(state))
}

// RecordEmpty appends key to the skip log. Recording the same key twice is a
// no-op; recording a key that has an artifact fails with ErrAlreadyCompleted.
func (l *Ledger) RecordEmpty(key model.WorkKey) error {
	if err := l.checkKey(key); err != nil {
		return err
	}
	has, err := l.HasArtifact(key)
	if err != nil {
		return err
	}
	if has {
		return eris.Wrapf(ErrAlreadyCompleted, "planner: record empty %s", key)
	}
	skipped, err := l.IsSkipped(key)
	if err != nil {
		return err
	}
	if skipped {
		return nil
	}
	return appendSkipLog(l.layout.SkipLogPath(), key.PostalCode)
}

// RecordArtifact atomically writes the key's result CSV, replacing any
// previous one. Writing for a skip-logged key fails with ErrAlreadySkipped.
func (l *Ledger) RecordArtifact(key model.WorkKey, rows []model.Row) (string, error) {
	if err := l.checkKey(key); err != nil {
		return "", err
	}
	skipped, err := l.IsSkipped(key)
	if err != nil {
		return "", err
	}
	if skipped {
		return "", eris.Wrapf(ErrAlreadySkipped, "planner: record artifact %s", key)
	}
	path := l.layout.ArtifactPath(key.PostalCode)
	if err := artifact.WriteFile(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

func (l *Ledger) checkKey(key model.WorkKey) error {
	if key.Category != l.layout.Category {
		return eris.Errorf("planner: key %s does not belong to category %q", key, l.layout.Category)
	}
	pc, err := model.NormalizePostalCode(key.PostalCode)
	if err != nil {
		return err
	}
	if pc != key.PostalCode {
		return eris.Errorf("planner: key %s postal code is not normalized", key)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, eris.Wrapf(err, "planner: stat %s", path)
}
