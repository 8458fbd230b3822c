package ledger

import "time"

// Snapshot is an immutable point-in-time copy of the whole ledger table.
// Rows are 0-based in the slice but addressed 1-based everywhere else, the
// way the sheet addresses them; row 1 is the header. A Snapshot is replaced
// wholesale by a newer read, never patched.
type Snapshot struct {
	Rows       [][]string
	CapturedAt time.Time
}

// Empty reports whether the snapshot holds no data at all (never captured,
// or captured from an empty table).
func (s Snapshot) Empty() bool {
	return len(s.Rows) == 0
}

// Cell returns the trimmed-length-safe cell at 1-based row and 0-based
// column; out-of-range addresses read as blank, matching how the sheet
// treats cells that were never written.
func (s Snapshot) Cell(row, col int) string {
	if row < 1 || row > len(s.Rows) || col < 0 {
		return ""
	}
	cells := s.Rows[row-1]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}
