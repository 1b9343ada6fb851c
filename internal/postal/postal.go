// Package postal loads the postal-code reference table and enumerates the
// work keys of a state.
package postal

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

type record struct {
	PostalCode string `csv:"Zip Code"`
	State      string `csv:"State Abbreviation"`
}

// Table maps state codes to their postal codes.
type Table struct {
	byState map[string][]string
}

// LoadTable reads the reference CSV at path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "postal: open table %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := ReadTable(f)
	if err != nil {
		return nil, eris.Wrapf(err, "postal: %s", path)
	}
	return t, nil
}

// ReadTable decodes a reference table. Rows with an unusable postal code
// are logged and skipped.
func ReadTable(r io.Reader) (*Table, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "postal: read header")
	}
	if missing := missingColumns(dec.Header()); len(missing) > 0 {
		return nil, eris.Errorf("postal: table lacks columns %s", strings.Join(missing, ", "))
	}

	sets := make(map[string]map[string]struct{})
	for {
		var rec record
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "postal: decode row")
		}

		state := strings.ToUpper(strings.TrimSpace(rec.State))
		pc, err := model.NormalizePostalCode(rec.PostalCode)
		if err != nil || state == "" {
			zap.L().Debug("postal: skipping table row",
				zap.String("postal_code", rec.PostalCode),
				zap.String("state", rec.State),
			)
			continue
		}
		if sets[state] == nil {
			sets[state] = make(map[string]struct{})
		}
		sets[state][pc] = struct{}{}
	}

	t := &Table{byState: make(map[string][]string, len(sets))}
	for state, set := range sets {
		codes := make([]string, 0, len(set))
		for pc := range set {
			codes = append(codes, pc)
		}
		slices.Sort(codes)
		t.byState[state] = codes
	}
	return t, nil
}

func missingColumns(header []string) []string {
	var missing []string
	for _, col := range []string{"Zip Code", "State Abbreviation"} {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// PostalCodes returns the state's postal codes, unique and ascending.
func (t *Table) PostalCodes(state string) []string {
	return slices.Clone(t.byState[strings.ToUpper(state)])
}

// States returns the states present in the table, sorted.
func (t *Table) States() []string {
	states := make([]string, 0, len(t.byState))
	for s := range t.byState {
		states = append(states, s)
	}
	slices.Sort(states)
	return states
}

// Keys returns the work keys for category in state, in postal-code order.
func (t *Table) Keys(category, state string) []model.WorkKey {
	codes := t.byState[strings.ToUpper(state)]
	keys := make([]model.WorkKey, 0, len(codes))
	for _, pc := range codes {
		keys = append(keys, model.WorkKey{Category: category, PostalCode: pc})
	}
	return keys
}
