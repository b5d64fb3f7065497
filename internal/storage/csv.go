package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/estensen/wallet-credit-score/internal/models"
)

// ScoresHeader is the header row of the score table.
var ScoresHeader = []string{"wallet", "credit_score"}

// RenderScores encodes the per-wallet scores as CSV with a header row.
func RenderScores(scores []models.WalletScore) ([]byte, error) {
	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{s.Wallet, formatFloat(s.CreditScore)})
	}
	return renderCSV(ScoresHeader, rows)
}

// RenderFeatures encodes the full feature table, the training label and the
// model output for each wallet. scores must line up with features.
func RenderFeatures(features []models.WalletFeatures, scores []models.WalletScore) ([]byte, error) {
	if len(features) != len(scores) {
		return nil, fmt.Errorf("feature and score rows differ: %d != %d", len(features), len(scores))
	}

	header := append([]string{"wallet"}, models.FeatureNames...)
	header = append(header, "true_score", "predicted_score", "credit_score")

	rows := make([][]string, 0, len(features))
	for i, f := range features {
		row := make([]string, 0, len(header))
		row = append(row, f.Wallet)
		for _, v := range f.Vector() {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			formatFloat(f.TrueScore),
			formatFloat(scores[i].PredictedScore),
			formatFloat(scores[i].CreditScore),
		)
		rows = append(rows, row)
	}
	return renderCSV(header, rows)
}

func renderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("error writing CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
