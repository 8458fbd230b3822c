package sheets

import "fmt"

// ColumnLetter converts a 0-based column index to its sheet letter
// ("A".."Z", "AA"..).
func ColumnLetter(col int) string {
	if col < 0 {
		return ""
	}
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

// CellRef builds an A1 reference from a 0-based column and 1-based row.
func CellRef(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnLetter(col), row)
}
