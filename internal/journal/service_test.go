package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelog/internal/ledger"
)

// fakeGateway applies writes to an in-memory grid so a re-read after
// invalidation observes them, and records every cell address for
// assertions.
type fakeGateway struct {
	mu        sync.Mutex
	rows      [][]string
	readCalls int
	writes    []write
	failField string
}

type write struct {
	row, col int
	value    string
}

func newFakeGateway(rows [][]string) *fakeGateway {
	return &fakeGateway{rows: rows}
}

func (g *fakeGateway) ReadAll(ctx context.Context) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readCalls++
	out := make([][]string, len(g.rows))
	for i, r := range g.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (g *fakeGateway) WriteCell(ctx context.Context, row, col int, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failField != "" && value == g.failField {
		return errors.New("store down")
	}
	g.apply(row, col, value)
	g.writes = append(g.writes, write{row: row, col: col, value: value})
	return nil
}

func (g *fakeGateway) WriteRange(ctx context.Context, startCell string, rows [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	col, row := parseRef(startCell)
	for i, cells := range rows {
		for j, val := range cells {
			g.apply(row+i, col+j, val)
			g.writes = append(g.writes, write{row: row + i, col: col + j, value: val})
		}
	}
	return nil
}

func (g *fakeGateway) apply(row, col int, value string) {
	for len(g.rows) < row {
		g.rows = append(g.rows, nil)
	}
	for len(g.rows[row-1]) <= col {
		g.rows[row-1] = append(g.rows[row-1], "")
	}
	g.rows[row-1][col] = value
}

func (g *fakeGateway) cell(row, col int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if row > len(g.rows) || col >= len(g.rows[row-1]) {
		return ""
	}
	return g.rows[row-1][col]
}

func (g *fakeGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writes)
}

func parseRef(ref string) (col, row int) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	col--
	for i < len(ref) {
		row = row*10 + int(ref[i]-'0')
		i++
	}
	return col, row
}

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newTestService(gw Gateway) *Service {
	cache := ledger.NewSnapshotCache(ledger.CacheConfig{MaxAge: time.Minute})
	return NewService(gw, cache, ledger.DefaultLayout(), Options{Now: func() time.Time { return fixedNow }})
}

func header() []string { return []string{"Time", "Ticket"} }

func TestCreateValidation(t *testing.T) {
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)

	_, err := svc.Create(context.Background(), Entry{Symbol: "eurusd", Side: "B"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), Entry{Ticket: "T1", Symbol: "eurusd", Side: "X"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, gw.writeCount(), "validation failures must not touch the store")
}

func TestCreateIdempotent(t *testing.T) {
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)

	first, err := svc.Create(context.Background(), Entry{Ticket: "T1", Symbol: "eurusd", Side: "B", Price: "1.1"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Row)
	assert.False(t, first.Duplicate)

	writesAfterFirst := gw.writeCount()
	second, err := svc.Create(context.Background(), Entry{Ticket: "T1", Symbol: "eurusd", Side: "B", Price: "1.1"})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, writesAfterFirst, gw.writeCount(), "duplicate create must not rewrite")
}

func TestCloseBeforeCreate(t *testing.T) {
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)

	_, err := svc.Close(context.Background(), Close{Ticket: "GHOST", ExitPrice: "1.2"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, gw.writeCount())
}

func TestBalanceColumnRouting(t *testing.T) {
	layout := ledger.DefaultLayout()

	t.Run("crypto symbol goes to column W", func(t *testing.T) {
		gw := newFakeGateway([][]string{header()})
		svc := newTestService(gw)
		res, err := svc.Create(context.Background(), Entry{Ticket: "C1", Symbol: "BTCUSD", Side: "B", Balance: 500})
		require.NoError(t, err)
		assert.Equal(t, "500,00", gw.cell(res.Row+1, layout.BalanceCrypto))
		assert.Equal(t, "", gw.cell(res.Row+1, layout.BalanceFiat))
	})

	t.Run("forex symbol goes to column X", func(t *testing.T) {
		gw := newFakeGateway([][]string{header()})
		svc := newTestService(gw)
		res, err := svc.Create(context.Background(), Entry{Ticket: "F1", Symbol: "EURUSD", Side: "B", Balance: 500})
		require.NoError(t, err)
		assert.Equal(t, "500,00", gw.cell(res.Row+1, layout.BalanceFiat))
	})
}

func TestEndToEndCreateThenClose(t *testing.T) {
	layout := ledger.DefaultLayout()
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)
	ctx := context.Background()

	res, err := svc.Create(ctx, Entry{
		Ticket: "T1", Symbol: "EURUSD", Side: "B",
		Price: "1.2345", Lots: 0.1, Balance: 1000,
		Source: SourceTerminal,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Row)

	assert.Equal(t, fixedNow.Format(timestampLayout), gw.cell(2, layout.Timestamp))
	assert.Equal(t, "T1", gw.cell(2, layout.Ticket))
	assert.Equal(t, "", gw.cell(2, layout.TradeNo))
	assert.Equal(t, "eurusd", gw.cell(2, layout.Symbol))
	assert.Equal(t, "B", gw.cell(2, layout.Side))
	assert.Equal(t, "1.2345", gw.cell(2, layout.Entry))
	assert.Equal(t, "0.1", gw.cell(2, layout.Lots))
	assert.Equal(t, ledger.StatusExecuted, gw.cell(2, layout.Status))
	assert.Equal(t, "1000,00", gw.cell(3, layout.BalanceFiat))

	row, err := svc.Close(ctx, Close{Ticket: "T1", ExitPrice: "1.2400", Profit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, row)

	assert.Equal(t, fixedNow.Format(timestampLayout), gw.cell(2, layout.ExitTime))
	assert.Equal(t, "1.2400", gw.cell(2, layout.ExitPrice))
	assert.Equal(t, "5", gw.cell(2, layout.Profit))
	assert.Equal(t, ledger.StatusClosed, gw.cell(2, layout.Status))
	assert.Equal(t, "1005,00", gw.cell(3, layout.BalanceFiat), "balance seeds from last balance plus profit")

	t.Run("second close is a no-op", func(t *testing.T) {
		writes := gw.writeCount()
		row, err := svc.Close(ctx, Close{Ticket: "T1", ExitPrice: "9.9", Profit: 99})
		require.NoError(t, err)
		assert.Equal(t, 2, row)
		assert.Equal(t, writes, gw.writeCount())
		assert.Equal(t, "1.2400", gw.cell(2, layout.ExitPrice))
	})
}

func TestMarkExecuted(t *testing.T) {
	layout := ledger.DefaultLayout()
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)
	ctx := context.Background()

	_, err := svc.Create(ctx, Entry{Ticket: "S1", Symbol: "eurusd", Side: "S", Price: "1.09", Balance: 800})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, gw.cell(2, layout.Status))

	row, err := svc.MarkExecuted(ctx, "S1", 0.2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, ledger.StatusExecuted, gw.cell(2, layout.Status))
	assert.Equal(t, "0.2", gw.cell(2, layout.Lots))

	_, err = svc.MarkExecuted(ctx, "NOPE", 0.1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkExecutedAfterCloseIsNoop(t *testing.T) {
	layout := ledger.DefaultLayout()
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)
	ctx := context.Background()

	_, err := svc.Create(ctx, Entry{Ticket: "T1", Symbol: "eurusd", Side: "B", Price: "1.1"})
	require.NoError(t, err)
	_, err = svc.Close(ctx, Close{Ticket: "T1", ExitPrice: "1.2", Profit: 5})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusClosed, gw.cell(2, layout.Status))

	writes := gw.writeCount()
	row, err := svc.MarkExecuted(ctx, "T1", 0.3, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, ledger.StatusClosed, gw.cell(2, layout.Status), "closed is terminal")
	assert.Equal(t, writes, gw.writeCount(), "late execution report must not write")
}

func TestRecent(t *testing.T) {
	gw := newFakeGateway([][]string{header()})
	svc := newTestService(gw)
	ctx := context.Background()

	for _, ticket := range []string{"T1", "T2", "T3"} {
		_, err := svc.Create(ctx, Entry{Ticket: ticket, Symbol: "eurusd", Side: "B", Price: "1.1"})
		require.NoError(t, err)
	}

	trades, total, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, trades, 2)
	assert.Equal(t, "T2", trades[0].Ticket)
	assert.Equal(t, "T3", trades[1].Ticket)
	assert.Equal(t, ledger.StatusPending, trades[1].Status)
}
