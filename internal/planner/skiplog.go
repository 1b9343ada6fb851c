package planner

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// ReadSkipLog returns the keys recorded in the skip log at path, one postal
// code per line. Blank lines are ignored; a missing file yields an empty set.
func ReadSkipLog(path, category string) (KeySet, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return KeySet{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "planner: open skip log %s", path)
	}
	defer f.Close() //nolint:errcheck

	keys := KeySet{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		pc, err := model.NormalizePostalCode(text)
		if err != nil {
			return nil, &MalformedSkipLogEntryError{Path: path, Line: line, Text: text, Err: err}
		}
		keys.Add(model.WorkKey{Category: category, PostalCode: pc})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "planner: read skip log %s", path)
	}
	return keys, nil
}

// appendSkipLog appends one postal code line, creating the log if needed.
func appendSkipLog(path, postal string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "planner: create log dir")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "planner: open skip log %s", path)
	}
	if _, err := f.WriteString(postal + "\n"); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "planner: append skip log %s", path)
	}
	return eris.Wrap(f.Close(), "planner: close skip log")
}
