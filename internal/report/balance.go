// Package report renders the account-balance history recorded in the
// ledger as a standalone HTML chart.
package report

import (
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"tradelog/internal/ledger"
	"tradelog/internal/pkg/convert"
)

// Point is one balance observation, keyed by the timestamp of the trade
// row above it.
type Point struct {
	Label   string
	Balance float64
}

// BalanceSeries extracts the balance history from a snapshot in row order.
// Balance cells sit one row below their trade, so the label comes from the
// preceding row's timestamp; unparseable cells are skipped.
func BalanceSeries(snap ledger.Snapshot, layout ledger.Layout) []Point {
	var points []Point
	for row := 2; row <= len(snap.Rows); row++ {
		for _, col := range []int{layout.BalanceCrypto, layout.BalanceFiat} {
			cell := strings.TrimSpace(snap.Cell(row, col))
			if cell == "" {
				continue
			}
			bal := convert.Parse(cell)
			if bal == 0 {
				continue
			}
			label := strings.TrimSpace(snap.Cell(row-1, layout.Timestamp))
			if label == "" {
				label = strings.TrimSpace(snap.Cell(row, layout.Timestamp))
			}
			points = append(points, Point{Label: label, Balance: bal})
		}
	}
	return points
}

// RenderBalanceChart writes the balance curve as a self-contained HTML
// document.
func RenderBalanceChart(w io.Writer, points []Point) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Account balance",
			Subtitle: "from ledger balance rows",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	labels := make([]string, len(points))
	values := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.Label
		values[i] = opts.LineData{Value: p.Balance}
	}
	line.SetXAxis(labels)
	line.AddSeries("balance", values,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line.Render(w)
}
