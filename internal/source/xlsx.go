// Package source loads work items from the input spreadsheet.
package source

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// Load reads the spreadsheet and returns one WorkItem per data row, in row
// order. The first row must be a header containing a "url" column; a
// "visits" column is optional. Any failure here is fatal to the run.
func Load(path string, sheetIndex int) ([]model.WorkItem, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open spreadsheet")
	}

	if sheetIndex < 0 || sheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: sheet index %d out of range (file has %d sheets)", sheetIndex, len(f.Sheets))
	}
	sheet := f.Sheets[sheetIndex]

	if len(sheet.Rows) == 0 {
		return nil, eris.New("source: spreadsheet is empty")
	}

	urlCol, visitsCol := -1, -1
	for j, cell := range sheet.Rows[0].Cells {
		switch strings.ToLower(strings.TrimSpace(cell.String())) {
		case "url":
			urlCol = j
		case "visits":
			visitsCol = j
		}
	}
	if urlCol < 0 {
		return nil, eris.New("source: no url column in header row")
	}

	var items []model.WorkItem
	for i, row := range sheet.Rows[1:] {
		url := cellAt(row, urlCol)
		if url == "" {
			continue
		}
		items = append(items, model.WorkItem{
			Index:  i + 1,
			URL:    url,
			Visits: parseVisits(cellAt(row, visitsCol)),
		})
	}

	return items, nil
}

// Window applies the optional start-from/limit selection after a full load.
// startFrom is a 1-based item index, limit a maximum count; zero disables
// either bound.
func Window(items []model.WorkItem, startFrom, limit int) []model.WorkItem {
	if startFrom > 1 {
		cut := 0
		for cut < len(items) && items[cut].Index < startFrom {
			cut++
		}
		items = items[cut:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func cellAt(row *xlsx.Row, col int) string {
	if col < 0 || col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}

func parseVisits(s string) int {
	if s == "" {
		return 0
	}
	// Visits columns often come through as floats ("1200.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}
