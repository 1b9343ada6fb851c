package artifact

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

func sampleRows() []model.Row {
	return []model.Row{
		{Establishment: "Lou's Diner", PhoneNumber: "3125550100", Address: "100 W Randolph St", City: "Chicago", State: "IL", PostalCode: "60601", Website: "https://lous.example", DataSource: "https://maps.example/details?placeid=a"},
		{Establishment: "Cafe, \"Quoted\"", PhoneNumber: "", Address: "5 Wacker Dr", City: "Chicago", State: "IL", PostalCode: "60602-1234", DataSource: "https://maps.example/details?placeid=b"},
	}
}

func TestWriteReadRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, sampleRows()))

	firstLine := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(model.RowHeader, ","), firstLine)

	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestWriteRows_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, nil))
	assert.Equal(t, strings.Join(model.RowHeader, ",")+"\n", buf.String())

	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRows_EmptyInput(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestReadRows_IgnoresExtraColumns(t *testing.T) {
	in := "establishment,emails,postal_code\nAcme,a@b.com,60601\n"
	rows, err := ReadRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Establishment)
	assert.Equal(t, "60601", rows[0].PostalCode)
}

func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "60601.csv")
	require.NoError(t, WriteFile(path, sampleRows()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not survive")
	assert.Equal(t, "60601.csv", entries[0].Name())

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteAtomic_ErrorLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "60601.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilterByPostal(t *testing.T) {
	rows := []model.Row{
		{Establishment: "a", PostalCode: "60601"},
		{Establishment: "b", PostalCode: "60601-2201"},
		{Establishment: "c", PostalCode: "60602"},
		{Establishment: "d", PostalCode: ""},
	}
	got := FilterByPostal(rows, "60601")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Establishment)
	assert.Equal(t, "b", got[1].Establishment)
}

func TestDedupePlaces(t *testing.T) {
	assert.Equal(t, []string{"x", "y", "z"}, DedupePlaces([]string{"x", "y", "x", "z", "y"}))
	assert.Empty(t, DedupePlaces(nil))
}

func TestRollup(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows()
	a := filepath.Join(dir, "60601.csv")
	b := filepath.Join(dir, "60602.csv")
	require.NoError(t, WriteFile(a, rows[:1]))
	require.NoError(t, WriteFile(b, rows))

	out := filepath.Join(dir, "IL_all_postal_codes.csv")
	merged, err := Rollup([]string{a, b}, out)
	require.NoError(t, err)
	assert.Equal(t, rows, merged)

	onDisk, err := ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, rows, onDisk)
}

func TestRollup_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Rollup([]string{filepath.Join(dir, "nope.csv")}, filepath.Join(dir, "out.csv"))
	assert.Error(t, err)
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IL_all_postal_codes.xlsx")
	require.NoError(t, ExportXLSX(sampleRows(), path, ""))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, "contacts", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "establishment", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Lou's Diner", sheet.Rows[1].Cells[0].String())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp workbook left behind")
	assert.Equal(t, "IL_all_postal_codes.xlsx", entries[0].Name())
}

func TestExportXLSX_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IL_all_postal_codes.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, ExportXLSX(sampleRows()[:1], path, "cafe"))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cafe", f.Sheets[0].Name)
	assert.Len(t, f.Sheets[0].Rows, 2)
}
