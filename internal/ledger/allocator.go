package ledger

import (
	"strings"

	"tradelog/internal/pkg/convert"
)

// freeRowLookahead extends the free-row scan past the snapshot so sparse or
// gapped tables still allocate deterministically.
const freeRowLookahead = 100

// firstDataRow is the first 1-based row that may hold a trade; row 1 is the
// sheet header.
const firstDataRow = 2

// Allocator answers "is this ticket recorded" and "which row is free" from
// a single Snapshot. Both questions for one request must be asked of the
// same Snapshot instance, so they observe one consistent view of the table.
type Allocator struct {
	layout Layout
}

func NewAllocator(layout Layout) Allocator {
	return Allocator{layout: layout}
}

// TicketExists scans the ticket column for an exact, trimmed match.
func (a Allocator) TicketExists(snap Snapshot, ticket string) bool {
	return a.RowOfTicket(snap, ticket) != 0
}

// RowOfTicket returns the 1-based row holding ticket, or 0 when absent.
// Linear scan: table sizes are bounded by manual trading volume.
func (a Allocator) RowOfTicket(snap Snapshot, ticket string) int {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return 0
	}
	for row := firstDataRow; row <= len(snap.Rows); row++ {
		if strings.TrimSpace(snap.Cell(row, a.layout.Ticket)) == ticket {
			return row
		}
	}
	return 0
}

// NextFreeRow returns the first 1-based row whose tracked columns are all
// blank. Rows past the snapshot read as blank, so an exhausted table yields
// len+1; an empty or unavailable snapshot falls back to the first data row.
func (a Allocator) NextFreeRow(snap Snapshot) int {
	if snap.Empty() {
		return firstDataRow
	}
	limit := len(snap.Rows) + freeRowLookahead
	for row := firstDataRow; row <= limit; row++ {
		if a.rowFree(snap, row) {
			return row
		}
	}
	return len(snap.Rows) + 1
}

func (a Allocator) rowFree(snap Snapshot, row int) bool {
	for col := 0; col < a.layout.Tracked; col++ {
		if strings.TrimSpace(snap.Cell(row, col)) != "" {
			return false
		}
	}
	return true
}

// LastBalance walks the snapshot backwards and returns the most recent
// non-blank value from either balance column. A cell that fails to parse is
// skipped rather than aborting the scan.
func (a Allocator) LastBalance(snap Snapshot) float64 {
	for row := len(snap.Rows); row >= firstDataRow; row-- {
		for _, col := range []int{a.layout.BalanceCrypto, a.layout.BalanceFiat} {
			cell := strings.TrimSpace(snap.Cell(row, col))
			if cell == "" {
				continue
			}
			if bal := convert.Parse(cell); bal != 0 {
				return bal
			}
		}
	}
	return 0
}
