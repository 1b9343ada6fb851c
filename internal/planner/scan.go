package planner

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

var rollupNameRe = regexp.MustCompile(`^[A-Z]{2}` + rollupSuffix + `\.(csv|xlsx)$`)

// ScanOutputDir returns the keys that have a result CSV in dir, an output
// directory of category. Hidden files, the logs directory, state rollups,
// and email companions are recognized and excluded. Any other file fails
// with *MalformedArtifactNameError. A missing dir yields an empty set.
func ScanOutputDir(dir, category string) (KeySet, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return KeySet{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "planner: read output dir %s", dir)
	}

	keys := make(KeySet, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok, err := ParseArtifactName(category, e.Name())
		if err != nil {
			return nil, &MalformedArtifactNameError{Dir: dir, Name: e.Name(), Err: err}
		}
		if ok {
			keys.Add(key)
		}
	}
	return keys, nil
}

// ParseArtifactName maps a file name in an output directory back to its key.
// ok is false for files that are recognized but are not per-key artifacts.
func ParseArtifactName(category, name string) (key model.WorkKey, ok bool, err error) {
	switch {
	case strings.HasPrefix(name, "."):
		return model.WorkKey{}, false, nil
	case rollupNameRe.MatchString(name):
		return model.WorkKey{}, false, nil
	case strings.HasSuffix(name, emailsSuffix+artifactExt):
		return model.WorkKey{}, false, nil
	case !strings.HasSuffix(name, artifactExt):
		return model.WorkKey{}, false, eris.New("not a .csv file")
	}

	stem := strings.TrimSuffix(name, artifactExt)
	pc, err := model.NormalizePostalCode(stem)
	if err != nil {
		return model.WorkKey{}, false, err
	}
	if pc != stem {
		return model.WorkKey{}, false, eris.Errorf("postal code %q is not in canonical form %q", stem, pc)
	}
	return model.WorkKey{Category: category, PostalCode: pc}, true, nil
}
