package planner

import (
	"path/filepath"
	"strings"
)

const (
	logDirName    = "logs"
	skipLogName   = "logfile"
	rollupSuffix  = "_all_postal_codes"
	emailsSuffix  = "_with_emails"
	artifactExt   = ".csv"
	rollupXLSXExt = ".xlsx"
)

// Layout locates the files of one category and country under a data root:
//
//	<root>/<category>/<country>/<postal>.csv
//	<root>/<category>/<country>/<STATE>_all_postal_codes.csv
//	<root>/<category>/<country>/logs/logfile
type Layout struct {
	Root     string
	Category string
	Country  string
}

// Dir is the output directory for the category and country.
func (l Layout) Dir() string {
	return filepath.Join(l.Root, l.Category, l.Country)
}

// ArtifactPath is the result CSV for a postal code.
func (l Layout) ArtifactPath(postal string) string {
	return filepath.Join(l.Dir(), postal+artifactExt)
}

// SkipLogPath is the append-only log of postal codes with no results.
func (l Layout) SkipLogPath() string {
	return filepath.Join(l.Dir(), logDirName, skipLogName)
}

// RollupPath is the aggregate CSV for a state.
func (l Layout) RollupPath(state string) string {
	return filepath.Join(l.Dir(), state+rollupSuffix+artifactExt)
}

// RollupXLSXPath is the XLSX export of a state's aggregate.
func (l Layout) RollupXLSXPath(state string) string {
	return filepath.Join(l.Dir(), state+rollupSuffix+rollupXLSXExt)
}

// EmailsPath returns the email companion of a CSV: foo.csv -> foo_with_emails.csv.
func EmailsPath(csvPath string) string {
	ext := filepath.Ext(csvPath)
	return strings.TrimSuffix(csvPath, ext) + emailsSuffix + artifactExt
}
