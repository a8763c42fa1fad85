// SPDX-License-Identifier: MIT

package pdf

import "strings"

// detectTables finds runs of at least two consecutive rows that split into
// the same number of columns at wide gaps. The running text keeps every row;
// detected grids are emitted again after the page text in markdown form.
func detectTables(lines []line) [][][]string {
	var tables [][][]string
	var run [][]string
	runCols := 0

	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, run)
		}
		run = nil
		runCols = 0
	}

	for _, l := range lines {
		cols := splitColumns(l)
		if len(cols) < 2 {
			flush()
			continue
		}
		if runCols != 0 && len(cols) != runCols {
			flush()
		}
		runCols = len(cols)
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, strings.TrimSpace(joinFragments(c)))
		}
		run = append(run, row)
	}
	flush()
	return tables
}

// tableMarkdown renders rows as a markdown table. The first row becomes the
// header; rows with no content at all are dropped.
func tableMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" " + cell + " |")
		}
	}
	writeRow(rows[0])
	b.WriteString("\n|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	for _, row := range rows[1:] {
		if allEmpty(row) {
			continue
		}
		b.WriteString("\n")
		writeRow(row)
	}
	return b.String()
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
