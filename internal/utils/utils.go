package utils

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/estensen/wallet-credit-score/internal/models"
)

// DisplayScores prints the first n wallet scores in a table format.
func DisplayScores(w io.Writer, scores []models.WalletScore, n int) {
	if len(scores) == 0 {
		fmt.Fprintln(w, "No wallet scores to display.")
		return
	}
	n = min(n, len(scores))

	fmt.Fprintf(w, "Sample wallet credit scores (%d of %d):\n", n, len(scores))
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Wallet", "Credit Score"})

	for _, s := range scores[:n] {
		t.AppendRow(table.Row{s.Wallet, fmt.Sprintf("%.2f", s.CreditScore)})
	}

	t.Render()
}

// FormatR2 renders a fit score, using n/a when it is undefined.
func FormatR2(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
