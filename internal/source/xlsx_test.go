package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ranktest-cli/internal/model"
)

func writeSheet(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("urls")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoad_ReadsURLAndVisits(t *testing.T) {
	path := writeSheet(t, [][]string{
		{"URL", "Visits"},
		{"https://shop.example/a", "1200"},
		{"https://shop.example/b", "300.0"},
	})

	items, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.WorkItem{Index: 1, URL: "https://shop.example/a", Visits: 1200}, items[0])
	assert.Equal(t, model.WorkItem{Index: 2, URL: "https://shop.example/b", Visits: 300}, items[1])
}

func TestLoad_HeaderIsCaseInsensitive(t *testing.T) {
	path := writeSheet(t, [][]string{
		{"url", "visits"},
		{"https://shop.example/a", "10"},
	})

	items, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestLoad_SkipsEmptyURLRowsButKeepsIndices(t *testing.T) {
	path := writeSheet(t, [][]string{
		{"url", "visits"},
		{"https://shop.example/a", "10"},
		{"", ""},
		{"https://shop.example/c", "30"},
	})

	items, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Row position, not slice position, is the stable join key.
	assert.Equal(t, 1, items[0].Index)
	assert.Equal(t, 3, items[1].Index)
}

func TestLoad_MissingVisitsColumn(t *testing.T) {
	path := writeSheet(t, [][]string{
		{"url"},
		{"https://shop.example/a"},
	})

	items, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].Visits)
}

func TestLoad_NoURLColumnFails(t *testing.T) {
	path := writeSheet(t, [][]string{
		{"page", "visits"},
		{"https://shop.example/a", "10"},
	})

	_, err := Load(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url column")
}

func TestLoad_SheetIndexOutOfRange(t *testing.T) {
	path := writeSheet(t, [][]string{{"url"}})

	_, err := Load(path, 3)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), 0)
	require.Error(t, err)
}

func TestWindow(t *testing.T) {
	items := []model.WorkItem{
		{Index: 1}, {Index: 2}, {Index: 3}, {Index: 4}, {Index: 5},
	}

	assert.Len(t, Window(items, 0, 0), 5)
	assert.Len(t, Window(items, 0, 2), 2)

	got := Window(items, 3, 0)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Index)

	got = Window(items, 4, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Index)

	assert.Empty(t, Window(items, 9, 0))
}
