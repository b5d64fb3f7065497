package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `[
	{
		"userWallet": "0xabc",
		"action": "Deposit",
		"timestamp": 1629178166,
		"actionData": {"amount": "2000000000000000000", "assetPriceUSD": "1.0001"}
	},
	{
		"userWallet": "0xdef",
		"action": "borrow",
		"timestamp": 1629178200,
		"actionData": {"amount": "5", "assetPriceUSD": 3}
	}
]`

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transactions.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestArchiveLoaderLoad(t *testing.T) {
	archive := writeArchive(t, map[string]string{"user-wallet-transactions.json": sampleJSON})
	dir := filepath.Join(t.TempDir(), "unzipped")

	l := NewArchiveLoader(archive, dir, "user-wallet-transactions.json")
	transactions, err := l.Load()
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	first := transactions[0]
	require.NotNil(t, first.UserWallet)
	require.NotNil(t, first.Action)
	assert.Equal(t, "0xabc", *first.UserWallet)
	assert.Equal(t, "Deposit", *first.Action)
	assert.Equal(t, json.Number("1629178166"), first.Timestamp)
	require.IsType(t, map[string]any{}, first.ActionData)
	assert.Equal(t, "2000000000000000000", first.ActionData.(map[string]any)["amount"])
	require.IsType(t, map[string]any{}, transactions[1].ActionData)
	assert.Equal(t, json.Number("3"), transactions[1].ActionData.(map[string]any)["assetPriceUSD"])
}

func TestArchiveLoaderOverwritesPreviousExtraction(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unzipped")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := strings.Repeat(" ", 4096) + "[]"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tx.json"), []byte(stale), 0o644))

	archive := writeArchive(t, map[string]string{"tx.json": sampleJSON})
	transactions, err := NewArchiveLoader(archive, dir, "tx.json").Load()
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}

func TestArchiveLoaderErrors(t *testing.T) {
	tests := []struct {
		name      string
		archive   func(t *testing.T) string
		jsonName  string
		expectErr error
	}{
		{
			name:     "Missing archive",
			archive:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.zip") },
			jsonName: "tx.json",
		},
		{
			name: "Corrupt archive",
			archive: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "corrupt.zip")
				require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
				return path
			},
			jsonName: "tx.json",
		},
		{
			name:      "Named file absent",
			archive:   func(t *testing.T) string { return writeArchive(t, map[string]string{"other.json": "[]"}) },
			jsonName:  "tx.json",
			expectErr: ErrFileNotInArchive,
		},
		{
			name:     "Unparsable JSON",
			archive:  func(t *testing.T) string { return writeArchive(t, map[string]string{"tx.json": "{not json"}) },
			jsonName: "tx.json",
		},
		{
			name:     "Path traversal",
			archive:  func(t *testing.T) string { return writeArchive(t, map[string]string{"../escape.json": "[]"}) },
			jsonName: "tx.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "unzipped")
			_, err := NewArchiveLoader(tt.archive(t), dir, tt.jsonName).Load()
			require.Error(t, err)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			}
		})
	}
}

func TestDecodeTransactionsMissingFields(t *testing.T) {
	transactions, err := DecodeTransactions(strings.NewReader(`[{"timestamp": 1}]`))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Nil(t, transactions[0].UserWallet)
	assert.Nil(t, transactions[0].Action)
	assert.Nil(t, transactions[0].ActionData)
}

func TestDecodeTransactionsNonObjectActionData(t *testing.T) {
	input := `[
		{"userWallet": "w1", "action": "deposit", "timestamp": 1, "actionData": {"amount": "1"}},
		{"userWallet": "w2", "action": "deposit", "timestamp": 2, "actionData": "oops"},
		{"userWallet": "w3", "action": "deposit", "timestamp": 3, "actionData": []},
		{"userWallet": "w4", "action": "deposit", "timestamp": 4, "actionData": 42}
	]`

	transactions, err := DecodeTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transactions, 4)
	assert.Equal(t, "oops", transactions[1].ActionData)
	assert.Empty(t, transactions[2].ActionData)
	assert.Equal(t, json.Number("42"), transactions[3].ActionData)
}
