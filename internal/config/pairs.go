package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// FallbackPairsFile is tried in the same directory when the configured pairs file does not exist.
const FallbackPairsFile = "pairs.csv"

type pairRow struct {
	Symbol string `csv:"symbol"`
}

// NormalizeSymbol converts "btc/usdt" and "BTCUSDT" to "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}

// LoadPairs reads the symbol column of a CSV file. Symbols are normalized, blanks dropped and
// duplicates removed, keeping file order.
func LoadPairs(path string) ([]string, error) {
	resolved, err := resolvePairsFile(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open pairs file %s", resolved)
	}
	defer file.Close()

	var rows []pairRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse pairs file %s", resolved)
	}

	seen := make(map[string]struct{}, len(rows))
	symbols := make([]string, 0, len(rows))

	for _, row := range rows {
		symbol := NormalizeSymbol(row.Symbol)
		if symbol == "" {
			continue
		}

		if _, ok := seen[symbol]; ok {
			continue
		}

		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func resolvePairsFile(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	fallback := filepath.Join(filepath.Dir(path), FallbackPairsFile)
	if _, err := os.Stat(fallback); err == nil {
		return fallback, nil
	}

	return "", errors.Newf(errors.ErrCodeDataNotFound, "pairs file %s not found", path)
}

// PairsFile loads the pairs file on every call.
type PairsFile struct {
	Path string
}

func (p PairsFile) Pairs(_ context.Context) ([]string, error) {
	return LoadPairs(p.Path)
}
