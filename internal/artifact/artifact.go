// Package artifact reads and writes the per-key result CSVs, builds the
// per-region rollup, and exports rollups to XLSX.
package artifact

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// WriteRows writes rows as CSV with a header line, even when rows is empty.
func WriteRows(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(model.Row{}); err != nil {
		return eris.Wrap(err, "artifact: encode header")
	}
	if len(rows) > 0 {
		if err := enc.Encode(rows); err != nil {
			return eris.Wrap(err, "artifact: encode rows")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "artifact: flush csv")
}

// ReadRows decodes every row of a result CSV. Unknown columns are ignored.
func ReadRows(r io.Reader) ([]model.Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "artifact: read header")
	}
	var rows []model.Row
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrap(err, "artifact: decode rows")
	}
	return rows, nil
}

// ReadFile reads the rows of the CSV at path.
func ReadFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	rows, err := ReadRows(f)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: %s", path)
	}
	return rows, nil
}

// WriteFile atomically replaces path with the CSV encoding of rows.
func WriteFile(path string, rows []model.Row) error {
	return WriteAtomic(path, func(w io.Writer) error {
		return WriteRows(w, rows)
	})
}

// WriteAtomic writes to a temp file beside path and renames it into place,
// so readers never observe a partially written file.
func WriteAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "artifact: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "artifact: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "artifact: rename into %s", path)
	}
	return nil
}

// FilterByPostal keeps rows whose postal code starts with postal. Nearby
// search circles overlap neighbouring codes, so their places leak in.
func FilterByPostal(rows []model.Row, postal string) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if strings.HasPrefix(r.PostalCode, postal) {
			out = append(out, r)
		}
	}
	return out
}

// DedupePlaces drops repeated place ids, keeping first occurrences in order.
func DedupePlaces(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
