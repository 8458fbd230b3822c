// Package journal orchestrates trade-lifecycle events against the ledger:
// dedup and row allocation on a per-request snapshot, cell writes through
// the gateway, cache invalidation afterwards.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradelog/internal/gateway/notifier"
	"tradelog/internal/gateway/sheets"
	"tradelog/internal/ledger"
	"tradelog/internal/logger"
	"tradelog/internal/pkg/convert"
	symbolpkg "tradelog/internal/pkg/symbol"
	"tradelog/internal/store/auditlog"
)

// Gateway is what the journal needs from the remote table: the cache's
// read plus raw cell writes. Writes bypass the cache by design.
type Gateway interface {
	ledger.Reader
	WriteCell(ctx context.Context, row, col int, value string) error
	WriteRange(ctx context.Context, startCell string, rows [][]string) error
}

const timestampLayout = "2006.01.02 15:04:05"

// Service is passed by reference into every handler; the snapshot cache it
// owns is the only state shared across requests.
type Service struct {
	gw     Gateway
	cache  *ledger.SnapshotCache
	alloc  ledger.Allocator
	layout ledger.Layout

	audit    *auditlog.Store
	telegram *notifier.Telegram
	now      func() time.Time
}

// Options carries the optional collaborators.
type Options struct {
	Audit    *auditlog.Store
	Telegram *notifier.Telegram
	Now      func() time.Time
}

func NewService(gw Gateway, cache *ledger.SnapshotCache, layout ledger.Layout, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		gw:       gw,
		cache:    cache,
		alloc:    ledger.NewAllocator(layout),
		layout:   layout,
		audit:    opts.Audit,
		telegram: opts.Telegram,
		now:      now,
	}
}

// CreateResult reports where an entry landed.
type CreateResult struct {
	Ticket    string `json:"ticket"`
	Row       int    `json:"row"`
	Duplicate bool   `json:"duplicate"`
}

// Create records an entry event. Dedup and row allocation both read the one
// snapshot fetched here, so they observe a consistent view; the documented
// race between two concurrent creates for the same ticket on different
// snapshots is accepted.
func (s *Service) Create(ctx context.Context, e Entry) (CreateResult, error) {
	if err := e.validate(); err != nil {
		return CreateResult{}, err
	}
	ticket := strings.TrimSpace(e.Ticket)
	sym := symbolpkg.Normalize(e.Symbol)

	snap := s.cache.Get(ctx, s.gw)
	if s.alloc.TicketExists(snap, ticket) {
		logger.Infof("journal: duplicate create ticket=%s, keeping existing row", ticket)
		s.recordAudit(ctx, ticket, "create", 0, auditlog.OutcomeDuplicate, "", e)
		return CreateResult{Ticket: ticket, Duplicate: true}, nil
	}

	row := s.alloc.NextFreeRow(snap)
	balance := e.Balance
	if balance == 0 {
		balance = s.alloc.LastBalance(snap)
	}

	entryRow := []string{
		s.now().Format(timestampLayout),
		ticket,
		"",
		sym,
		e.Side,
		strings.TrimSpace(e.Price),
		strings.TrimSpace(e.TakeProfit),
		strings.TrimSpace(e.StopLoss),
	}
	if err := s.gw.WriteRange(ctx, sheets.CellRef(s.layout.Timestamp, row), [][]string{entryRow}); err != nil {
		return CreateResult{}, s.failWrite(ctx, ticket, "create", row, "entry row", e, err)
	}
	if e.Lots > 0 {
		if err := s.gw.WriteCell(ctx, row, s.layout.Lots, formatFloat(e.Lots)); err != nil {
			return CreateResult{}, s.failWrite(ctx, ticket, "create", row, "lots", e, err)
		}
	}
	status := ledger.StatusPending
	if e.Source == SourceTerminal {
		status = ledger.StatusExecuted
	}
	if err := s.gw.WriteCell(ctx, row, s.layout.Status, status); err != nil {
		return CreateResult{}, s.failWrite(ctx, ticket, "create", row, "status", e, err)
	}
	if err := s.writeBalance(ctx, row, sym, balance); err != nil {
		return CreateResult{}, s.failWrite(ctx, ticket, "create", row, "balance", e, err)
	}

	s.cache.Invalidate()
	s.recordAudit(ctx, ticket, "create", row, auditlog.OutcomeOK, "", e)
	s.notify(notifier.TradeOpened(ticket, sym, e.Side, row))
	logger.Infof("journal: recorded ticket=%s row=%d status=%s", ticket, row, status)
	return CreateResult{Ticket: ticket, Row: row}, nil
}

// MarkExecuted moves a pending signal entry to EXECUTED once the terminal
// confirms the fill.
func (s *Service) MarkExecuted(ctx context.Context, ticket string, lots, balance float64) (int, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return 0, invalidf("ticket is required")
	}

	snap := s.cache.Get(ctx, s.gw)
	row := s.alloc.RowOfTicket(snap, ticket)
	if row == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, ticket)
	}
	// CLOSED is terminal; a late execution report must not regress it.
	if strings.TrimSpace(snap.Cell(row, s.layout.Status)) == ledger.StatusClosed {
		logger.Infof("journal: ticket=%s already closed, ignoring execution report", ticket)
		s.recordAudit(ctx, ticket, "mark_executed", row, auditlog.OutcomeDuplicate, "", nil)
		return row, nil
	}

	if err := s.gw.WriteCell(ctx, row, s.layout.Status, ledger.StatusExecuted); err != nil {
		return 0, s.failWrite(ctx, ticket, "mark_executed", row, "status", nil, err)
	}
	if lots > 0 {
		if err := s.gw.WriteCell(ctx, row, s.layout.Lots, formatFloat(lots)); err != nil {
			return 0, s.failWrite(ctx, ticket, "mark_executed", row, "lots", nil, err)
		}
	}
	if balance == 0 {
		balance = s.alloc.LastBalance(snap)
	}
	if err := s.writeBalance(ctx, row, snap.Cell(row, s.layout.Symbol), balance); err != nil {
		return 0, s.failWrite(ctx, ticket, "mark_executed", row, "balance", nil, err)
	}

	s.cache.Invalidate()
	s.recordAudit(ctx, ticket, "mark_executed", row, auditlog.OutcomeOK, "", nil)
	logger.Infof("journal: ticket=%s row=%d marked %s", ticket, row, ledger.StatusExecuted)
	return row, nil
}

// Close finishes a trade: exit fields on the trade row, balance on the row
// beneath. Closing an already-closed ticket is a benign no-op, matching the
// duplicate-create policy.
func (s *Service) Close(ctx context.Context, c Close) (int, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}
	ticket := strings.TrimSpace(c.Ticket)

	snap := s.cache.Get(ctx, s.gw)
	row := s.alloc.RowOfTicket(snap, ticket)
	if row == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, ticket)
	}
	if strings.TrimSpace(snap.Cell(row, s.layout.Status)) == ledger.StatusClosed {
		logger.Infof("journal: ticket=%s already closed, ignoring", ticket)
		s.recordAudit(ctx, ticket, "close", row, auditlog.OutcomeDuplicate, "", c)
		return row, nil
	}

	exitTime := strings.TrimSpace(c.ExitTime)
	if exitTime == "" {
		exitTime = s.now().Format(timestampLayout)
	}
	if err := s.gw.WriteCell(ctx, row, s.layout.ExitTime, exitTime); err != nil {
		return 0, s.failWrite(ctx, ticket, "close", row, "exit time", c, err)
	}
	if err := s.gw.WriteCell(ctx, row, s.layout.ExitPrice, strings.TrimSpace(c.ExitPrice)); err != nil {
		return 0, s.failWrite(ctx, ticket, "close", row, "exit price", c, err)
	}
	if err := s.gw.WriteCell(ctx, row, s.layout.Profit, formatFloat(c.Profit)); err != nil {
		return 0, s.failWrite(ctx, ticket, "close", row, "profit", c, err)
	}
	if err := s.gw.WriteCell(ctx, row, s.layout.Status, ledger.StatusClosed); err != nil {
		return 0, s.failWrite(ctx, ticket, "close", row, "status", c, err)
	}

	balance := c.Balance
	if balance == 0 {
		balance = s.alloc.LastBalance(snap) + c.Profit
	}
	if err := s.writeBalance(ctx, row, snap.Cell(row, s.layout.Symbol), balance); err != nil {
		return 0, s.failWrite(ctx, ticket, "close", row, "balance", c, err)
	}

	s.cache.Invalidate()
	s.recordAudit(ctx, ticket, "close", row, auditlog.OutcomeOK, "", c)
	s.notify(notifier.TradeClosed(ticket, c.Profit, row))
	logger.Infof("journal: ticket=%s row=%d closed profit=%s", ticket, row, formatFloat(c.Profit))
	return row, nil
}

// TradeRow is a read-model row for the /trades listing.
type TradeRow struct {
	Row       int    `json:"row"`
	Ticket    string `json:"ticket"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Entry     string `json:"entry"`
	Status    string `json:"status"`
	ExitPrice string `json:"exit_price,omitempty"`
	Profit    string `json:"profit,omitempty"`
}

// Recent returns the newest limit trades plus the total count of recorded
// trades, all from one snapshot.
func (s *Service) Recent(ctx context.Context, limit int) ([]TradeRow, int, error) {
	if limit <= 0 {
		limit = 20
	}
	snap := s.cache.Get(ctx, s.gw)

	var trades []TradeRow
	for row := 2; row <= len(snap.Rows); row++ {
		ticket := strings.TrimSpace(snap.Cell(row, s.layout.Ticket))
		if ticket == "" {
			continue
		}
		trades = append(trades, TradeRow{
			Row:       row,
			Ticket:    ticket,
			Symbol:    snap.Cell(row, s.layout.Symbol),
			Side:      snap.Cell(row, s.layout.Side),
			Entry:     snap.Cell(row, s.layout.Entry),
			Status:    snap.Cell(row, s.layout.Status),
			ExitPrice: snap.Cell(row, s.layout.ExitPrice),
			Profit:    snap.Cell(row, s.layout.Profit),
		})
	}
	total := len(trades)
	if len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	return trades, total, nil
}

// Snapshot exposes the current cached table for read-only consumers (the
// balance report).
func (s *Service) Snapshot(ctx context.Context) ledger.Snapshot {
	return s.cache.Get(ctx, s.gw)
}

// Layout returns the active column contract.
func (s *Service) Layout() ledger.Layout {
	return s.layout
}

// Events returns recent audit records; nil when auditing is disabled.
func (s *Service) Events(ctx context.Context, limit int) ([]auditlog.EventRecord, error) {
	return s.audit.Recent(ctx, limit)
}

func (s *Service) writeBalance(ctx context.Context, tradeRow int, sym string, balance float64) error {
	col := s.layout.BalanceFiat
	if symbolpkg.IsCrypto(sym) {
		col = s.layout.BalanceCrypto
	}
	// Balance lives on the row immediately below the trade row.
	return s.gw.WriteCell(ctx, tradeRow+1, col, convert.Format(balance))
}

// failWrite logs enough detail (ticket, row, failing field) to reconcile a
// partially written row by hand, then records the audit event.
func (s *Service) failWrite(ctx context.Context, ticket, action string, row int, field string, payload any, err error) error {
	logger.Errorf("journal: %s write failed ticket=%s row=%d field=%s err=%v", action, ticket, row, field, err)
	s.recordAudit(ctx, ticket, action, row, auditlog.OutcomeError, fmt.Sprintf("%s: %v", field, err), payload)
	return fmt.Errorf("writing %s for ticket %s (row %d): %w", field, ticket, row, err)
}

func (s *Service) recordAudit(ctx context.Context, ticket, action string, row int, outcome, detail string, payload any) {
	if s.audit == nil {
		return
	}
	rec := auditlog.EventRecord{
		Ticket:  ticket,
		Action:  action,
		Row:     row,
		Outcome: outcome,
		Detail:  detail,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			rec.Payload = data
		}
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		logger.Warnf("journal: audit append failed ticket=%s action=%s err=%v", ticket, action, err)
	}
}

func (s *Service) notify(text string) {
	if s.telegram == nil {
		return
	}
	go func() {
		if err := s.telegram.SendText(text); err != nil {
			logger.Warnf("journal: telegram notify failed: %v", err)
		}
	}()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
