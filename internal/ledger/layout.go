package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout maps logical ledger fields to 0-based column indices. The layout is
// a versioned contract shared with every dashboard reading the same sheet;
// changing it silently between deployments corrupts the table, so it lives
// in configs/layout.yaml rather than in scattered constants.
type Layout struct {
	Version int `yaml:"version"`

	Timestamp  int `yaml:"timestamp"`
	Ticket     int `yaml:"ticket"`
	TradeNo    int `yaml:"trade_no"`
	Symbol     int `yaml:"symbol"`
	Side       int `yaml:"side"`
	Entry      int `yaml:"entry"`
	TakeProfit int `yaml:"take_profit"`
	StopLoss   int `yaml:"stop_loss"`

	ExitTime      int `yaml:"exit_time"`
	ExitPrice     int `yaml:"exit_price"`
	Lots          int `yaml:"lots"`
	BalanceCrypto int `yaml:"balance_crypto"`
	BalanceFiat   int `yaml:"balance_fiat"`
	Status        int `yaml:"status"`
	Profit        int `yaml:"profit"`

	// Tracked is how many leading columns decide whether a row is free.
	Tracked int `yaml:"tracked"`
}

// DefaultLayout matches the sheet this service has historically written:
// A..H entry data, N/P exit time+price, V lots, W/X balances, Y status,
// Z profit.
func DefaultLayout() Layout {
	return Layout{
		Version:       1,
		Timestamp:     0,
		Ticket:        1,
		TradeNo:       2,
		Symbol:        3,
		Side:          4,
		Entry:         5,
		TakeProfit:    6,
		StopLoss:      7,
		ExitTime:      13,
		ExitPrice:     15,
		Lots:          21,
		BalanceCrypto: 22,
		BalanceFiat:   23,
		Status:        24,
		Profit:        25,
		Tracked:       8,
	}
}

// LoadLayout reads the column contract from path. An empty path yields the
// default layout; a missing or unreadable file is an error since a partial
// layout would silently drift the contract.
func LoadLayout(path string) (Layout, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("reading layout file failed (%s): %w", path, err)
	}
	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parsing layout file failed (%s): %w", path, err)
	}
	if err := layout.validate(); err != nil {
		return Layout{}, fmt.Errorf("layout file invalid (%s): %w", path, err)
	}
	return layout, nil
}

func (l Layout) validate() error {
	if l.Tracked <= 0 {
		return fmt.Errorf("tracked must be positive")
	}
	cols := map[string]int{
		"timestamp": l.Timestamp, "ticket": l.Ticket, "trade_no": l.TradeNo,
		"symbol": l.Symbol, "side": l.Side, "entry": l.Entry,
		"take_profit": l.TakeProfit, "stop_loss": l.StopLoss,
		"exit_time": l.ExitTime, "exit_price": l.ExitPrice, "lots": l.Lots,
		"balance_crypto": l.BalanceCrypto, "balance_fiat": l.BalanceFiat,
		"status": l.Status, "profit": l.Profit,
	}
	seen := make(map[int]string, len(cols))
	for name, idx := range cols {
		if idx < 0 {
			return fmt.Errorf("%s column index must be >= 0", name)
		}
		if prev, ok := seen[idx]; ok {
			return fmt.Errorf("%s and %s share column index %d", prev, name, idx)
		}
		seen[idx] = name
	}
	return nil
}

// Statuses written to the status column. A row is created PENDING (signal
// source) or EXECUTED (terminal source) and ends CLOSED; nothing follows
// CLOSED.
const (
	StatusPending  = "PENDING"
	StatusExecuted = "EXECUTED"
	StatusClosed   = "CLOSED"
)
