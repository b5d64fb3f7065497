package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"github.com/estensen/wallet-credit-score/internal/models"
)

var (
	ErrFileNotInArchive = errors.New("file not found in archive")
	ErrIllegalPath      = errors.New("illegal file path in archive")
)

// Loader produces the raw transaction list for a run.
type Loader interface {
	Load() ([]models.RawTransaction, error)
}

// ArchiveLoader extracts a zip archive and decodes one JSON file from it.
type ArchiveLoader struct {
	ArchivePath  string
	ExtractDir   string
	JSONFilename string
}

func NewArchiveLoader(archivePath, extractDir, jsonFilename string) *ArchiveLoader {
	return &ArchiveLoader{
		ArchivePath:  archivePath,
		ExtractDir:   extractDir,
		JSONFilename: jsonFilename,
	}
}

func (l *ArchiveLoader) Load() ([]models.RawTransaction, error) {
	extracted, err := ExtractArchive(l.ArchivePath, l.ExtractDir)
	if err != nil {
		return nil, err
	}
	log.Info().Str("archive", l.ArchivePath).Int("files", extracted).Msg("Extracted archive")

	jsonPath := filepath.Join(l.ExtractDir, l.JSONFilename)
	if _, err := os.Stat(jsonPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotInArchive, l.JSONFilename)
	}

	transactions, err := ReadTransactions(jsonPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("transactions", len(transactions)).Msg("Loaded transactions")
	return transactions, nil
}

// ExtractArchive unpacks every file of the archive into dir, overwriting
// files that already exist. It returns the number of files written.
func ExtractArchive(archivePath, dir string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("error opening archive %s: %w", archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("error creating extract dir: %w", err)
	}

	count := 0
	for _, f := range r.File {
		if !filepath.IsLocal(f.Name) {
			return count, fmt.Errorf("%w: %s", ErrIllegalPath, f.Name)
		}
		target := filepath.Join(dir, f.Name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("error creating directory %s: %w", target, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", target, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("error reading %s from archive: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("error extracting %s: %w", f.Name, err)
	}
	return dst.Close()
}

// ReadTransactions decodes a JSON array of raw transactions. Numbers are
// kept as json.Number so amounts survive without float rounding.
func ReadTransactions(path string) ([]models.RawTransaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return DecodeTransactions(file)
}

func DecodeTransactions(r io.Reader) ([]models.RawTransaction, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var transactions []models.RawTransaction
	if err := decoder.Decode(&transactions); err != nil {
		return nil, fmt.Errorf("error decoding transactions: %w", err)
	}
	return transactions, nil
}
