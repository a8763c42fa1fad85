// SPDX-License-Identifier: MIT

package office

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ManuGH/ccore/internal/exterr"
)

// extractXLSX renders each non-empty sheet as a heading followed by a
// markdown table. The first row serves as the header row.
func extractXLSX(file string) (string, error) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		kind := exterr.KindOf(err)
		if kind == exterr.KindExtraction {
			kind = exterr.KindParse
		}
		return "", exterr.Wrap(kind, "open workbook", err)
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", exterr.Wrap(exterr.KindParse, fmt.Sprintf("read sheet %q", sheet), err)
		}
		rows = dropEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		parts = append(parts, "## "+sheet+"\n\n"+markdownTable(rows))
	}
	return strings.Join(parts, "\n\n"), nil
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
