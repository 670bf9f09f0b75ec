package domain

import "strings"

// RawTable is a delimited extract as read from disk: a header row and string cells.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the header matching name exactly
// (surrounding whitespace ignored), or -1.
func (t RawTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row/col, or "" when out of range.
func (t RawTable) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
