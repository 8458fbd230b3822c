package journal

import (
	"strings"
)

// Source says which upstream produced an entry event. Signal entries start
// PENDING (no lot size yet); terminal entries are already filled and start
// EXECUTED.
type Source int

const (
	SourceSignal Source = iota
	SourceTerminal
)

// Entry is a normalized create event. Prices stay strings: they are
// recorded as received (after separator normalization upstream), not
// re-rendered through float formatting.
type Entry struct {
	Ticket     string
	Symbol     string
	Side       string
	Price      string
	TakeProfit string
	StopLoss   string
	Lots       float64
	Balance    float64
	Source     Source
}

func (e *Entry) validate() error {
	if strings.TrimSpace(e.Ticket) == "" {
		return invalidf("ticket is required")
	}
	if strings.TrimSpace(e.Symbol) == "" {
		return invalidf("symbol is required")
	}
	side, err := normalizeSide(e.Side)
	if err != nil {
		return err
	}
	e.Side = side
	return nil
}

// Close is a close/result event matched by ticket.
type Close struct {
	Ticket    string
	ExitTime  string
	ExitPrice string
	Profit    float64
	Balance   float64
}

func (c *Close) validate() error {
	if strings.TrimSpace(c.Ticket) == "" {
		return invalidf("ticket is required")
	}
	return nil
}

// normalizeSide maps the accepted side spellings onto the single-letter
// codes the ledger stores.
func normalizeSide(side string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "b", "buy", "long":
		return "B", nil
	case "s", "sell", "short":
		return "S", nil
	default:
		return "", invalidf("side %q not in allowed set (B/S)", side)
	}
}
