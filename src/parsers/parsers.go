// Package parsers turns broker activity exports into raw ledger entries for
// the ledger normalizer. Each supported broker ships its CSV with a
// different preamble, column set and action vocabulary, so each gets its own
// Parser implementation.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mingli/holding-analyzer/backend/src/models"
)

// Parser converts one broker's CSV export into raw ledger entries.
// Non-trade rows (dividends, interest, cash sweeps) are skipped.
type Parser interface {
	Parse(file io.Reader) ([]models.RawLedgerEntry, error)
}

type parserFactory func() Parser

var registry = map[string]parserFactory{}

// Register makes a parser available under a broker name. Called from the
// broker packages' init functions.
func Register(broker string, factory parserFactory) {
	registry[strings.ToUpper(broker)] = factory
}

// GetParser returns the parser for a broker name.
func GetParser(broker string) (Parser, error) {
	factory, ok := registry[strings.ToUpper(broker)]
	if !ok {
		return nil, fmt.Errorf("no parser registered for broker %q", broker)
	}
	return factory(), nil
}

// Brokers lists the registered broker names.
func Brokers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// --- Shared helpers ---

// canadianTickers are TSX listings that broker exports frequently ship
// without the .TO suffix.
var canadianTickers = map[string]bool{
	"VDY": true, "XEI": true, "XEF": true, "XEC": true, "XIU": true,
	"CM": true, "TD": true, "WCP": true, "CASH": true, "DLR": true,
	"XRE": true, "VCN": true, "VEE": true, "VIU": true, "VUN": true,
}

var symbolSuffixRe = regexp.MustCompile(`\s+(UNITS?|ETF)$`)

// CleanSymbol normalizes broker symbol spellings: trims suffixes, upper
// cases, and restores the .TO suffix on known Canadian listings.
func CleanSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = symbolSuffixRe.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, ".TO")
	if canadianTickers[s] {
		return s + ".TO"
	}
	return s
}

// ParseAmount reads a broker-formatted number ("1,234.56") as a float.
// Empty strings parse as 0.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	cleaned = strings.Trim(cleaned, "\"$")
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02", "02 Jan 2006", "Jan 2, 2006"}

// ParseDate accepts the date spellings seen across broker exports and
// returns the canonical YYYY-MM-DD form.
func ParseDate(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, trimmed); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// HeaderIndex maps column names to their positions, case-insensitively.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// Field reads a named column from a record, empty when absent.
func Field(record []string, idx map[string]int, name string) string {
	i, ok := idx[strings.ToLower(name)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadAfterPreamble skips a broker export's preamble rows, returning the
// header row and the remaining records. The header is found by looking for a
// marker column name.
func ReadAfterPreamble(file io.Reader, marker string) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("header row with column %q not found", marker)
		}
		if err != nil {
			continue // Preamble rows are often not valid CSV
		}
		for _, cell := range record {
			if strings.EqualFold(strings.TrimSpace(cell), marker) {
				records, err := reader.ReadAll()
				if err != nil {
					return nil, nil, fmt.Errorf("failed to read CSV records: %w", err)
				}
				return record, records, nil
			}
		}
	}
}
