package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "data.csv", "id,value\n1,a\n2,b\n")

	ds, err := LoadCSV(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value"}, ds.Columns)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, ds.Rows)
}

func TestLoadCSVStripsBOM(t *testing.T) {
	path := writeFile(t, "bom.csv", "\xEF\xBB\xBFid,value\n1,a\n")

	ds, err := LoadCSV(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value"}, ds.Columns)
}

func TestLoadCSVSeparator(t *testing.T) {
	path := writeFile(t, "semi.csv", "id;value\n1;a\n")

	ds, err := LoadCSV(path, LoadOptions{Separator: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value"}, ds.Columns)
	assert.Equal(t, [][]string{{"1", "a"}}, ds.Rows)
}

func TestLoadCSVTrimSpace(t *testing.T) {
	path := writeFile(t, "spaced.csv", "id , value\n 1 , a \n")

	ds, err := LoadCSV(path, LoadOptions{TrimSpace: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value"}, ds.Columns)
	assert.Equal(t, [][]string{{"1", "a"}}, ds.Rows)
}

func TestLoadCSVRowWidthMismatch(t *testing.T) {
	path := writeFile(t, "ragged.csv", "a,b\n1,2\n3\n")

	_, err := LoadCSV(path, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := LoadCSV(path, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a header row")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	assert.Error(t, err)
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "value", "note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1", "a", ""}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"2", "b", "x"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := LoadExcel(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value", "note"}, ds.Columns)
	require.Equal(t, 2, ds.NumRows())
	// Trailing empty cells are padded back to the header width.
	assert.Equal(t, []string{"1", "a", ""}, ds.Rows[0])
	assert.Equal(t, []string{"2", "b", "x"}, ds.Rows[1])
}

func TestLoadExcelMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := LoadExcel(path, "NoSuchSheet")
	assert.Error(t, err)
}

func TestLoadLookup(t *testing.T) {
	path := writeFile(t, "lookup.csv", "site,site_mapping\nexample.com,Example\n,Ignored\nother.com,Other\n")

	lookup, err := LoadLookup(path, "site", "site_mapping")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"example.com": "Example",
		"other.com":   "Other",
	}, lookup)
}

func TestLoadLookupMissingColumn(t *testing.T) {
	path := writeFile(t, "lookup.csv", "site,site_mapping\nexample.com,Example\n")

	_, err := LoadLookup(path, "site", "missing")
	assert.Error(t, err)
}

func TestLoadColumn(t *testing.T) {
	path := writeFile(t, "browsers.csv", "browsers\nChrome\n\nFirefox\n")

	values, err := LoadColumn(path, "browsers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chrome", "Firefox"}, values)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "exclusions.json", `{"sites":["a.com"],"apps":["Tool"]}`)

	var dest map[string][]string
	require.NoError(t, LoadJSON(path, &dest))
	assert.Equal(t, []string{"a.com"}, dest["sites"])
	assert.Equal(t, []string{"Tool"}, dest["apps"])

	bad := writeFile(t, "bad.json", "{")
	assert.Error(t, LoadJSON(bad, &dest))
}
