package artifact

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// Rollup concatenates the CSVs at paths into out, dropping exact duplicate
// rows (first occurrence wins). It returns the rows written.
func Rollup(paths []string, out string) ([]model.Row, error) {
	seen := make(map[model.Row]struct{})
	var merged []model.Row
	for _, p := range paths {
		rows, err := ReadFile(p)
		if err != nil {
			return nil, eris.Wrap(err, "artifact: rollup")
		}
		for _, r := range rows {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			merged = append(merged, r)
		}
	}
	if err := WriteFile(out, merged); err != nil {
		return nil, eris.Wrap(err, "artifact: write rollup")
	}
	return merged, nil
}

// ExportXLSX writes rows to a single-sheet workbook at path.
func ExportXLSX(rows []model.Row, path, sheetName string) error {
	if sheetName == "" {
		sheetName = "contacts"
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "artifact: add sheet %q", sheetName)
	}
	addRow(sheet, model.RowHeader)
	for _, r := range rows {
		addRow(sheet, r.Strings())
	}
	if err := WriteAtomic(path, f.Write); err != nil {
		return eris.Wrapf(err, "artifact: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(strings.TrimSpace(v))
	}
}
