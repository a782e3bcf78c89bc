package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tradejournal/internal/engine"
)

var (
	// ErrUnrecognizedFormat means the file matched no known broker export
	// shape. This is a user-facing "wrong file" condition, not a server fault.
	ErrUnrecognizedFormat = errors.New("file does not match any recognized orderbook format")
	// ErrNoUsableRows means the header matched but every row was dropped.
	ErrNoUsableRows = errors.New("file contains no usable trade rows")
)

// Parser converts the data rows of one known broker export shape into
// normalized trade legs. Rows missing required fields are dropped silently.
type Parser interface {
	// Name identifies the export shape, e.g. "retail" or "contract-note".
	Name() string
	Parse(records [][]string) []engine.TradeLeg
}

// registered parsers, probed in order.
var parsers = []func(header []string) (Parser, bool){
	newRetailParser,
	newContractNoteParser,
}

// Detect inspects a header row and returns the parser for its shape.
func Detect(header []string) (Parser, bool) {
	for _, probe := range parsers {
		if p, ok := probe(header); ok {
			return p, true
		}
	}
	return nil, false
}

// Parse reads a whole CSV export: the first row selects the parser, the rest
// become trade legs. Returns the legs and the detected format name.
func Parse(r io.Reader) ([]engine.TradeLeg, string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return nil, "", ErrUnrecognizedFormat
	}

	p, ok := Detect(records[0])
	if !ok {
		return nil, "", ErrUnrecognizedFormat
	}

	legs := p.Parse(records[1:])
	if len(legs) == 0 {
		return nil, p.Name(), ErrNoUsableRows
	}
	return legs, p.Name(), nil
}

// normalizeHeader lowercases a header cell and collapses separators so
// "Trade Date", "trade_date" and "TRADE-DATE" all compare equal.
func normalizeHeader(cell string) string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	cell = strings.ReplaceAll(cell, "_", " ")
	cell = strings.ReplaceAll(cell, "-", " ")
	return strings.Join(strings.Fields(cell), " ")
}

// columnIndex builds a lookup from normalized header name to column position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, cell := range header {
		idx[normalizeHeader(cell)] = i
	}
	return idx
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Accepted source date layouts; day-first is tried before month-first since
// the supported brokers are day-first by default.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// parseDate normalizes a source date to a midnight timestamp.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseClock merges an optional HH:MM[:SS] execution time into a date.
func parseClock(date time.Time, value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if clock, err := time.Parse(layout, value); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				clock.Hour(), clock.Minute(), clock.Second(), 0, date.Location())
		}
	}
	return date
}

func parseFloat(value string) (float64, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	return f, err == nil
}

func parseQuantity(value string) (int64, bool) {
	f, ok := parseFloat(value)
	if !ok || f <= 0 {
		return 0, false
	}
	return int64(f), true
}

func parseDirection(value string) (engine.Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY", "B":
		return engine.DirectionBuy, true
	case "SELL", "S":
		return engine.DirectionSell, true
	}
	return "", false
}
