package parser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RobinhoodParser handles Robinhood activity exports. Amounts use accounting
// notation ("($12.34)" is money out) with currency symbols and thousands
// separators. Rows without a parseable amount are non-monetary events (stock
// splits, symbol conversions) and are dropped even when date and description
// are fine: the ledger does not model them.
//
// Columns: Activity Date, Process Date, Settle Date, Instrument, Description,
// Trans Code, Quantity, Price, Amount
type RobinhoodParser struct{}

const (
	rhDateCol       = 0
	rhInstrumentCol = 3
	rhDescCol       = 4
	rhCodeCol       = 5
	rhQuantityCol   = 6
	rhPriceCol      = 7
	rhAmountCol     = 8
	rhMinFields     = 9
)

func (p *RobinhoodParser) Parse(content string) []Row {
	content = stripBOM(content)

	recs := records(content, ',')
	if len(recs) < 2 {
		return nil
	}

	var rows []Row
	for _, rec := range recs[1:] {
		if len(rec) < rhMinFields {
			continue
		}
		date, ok := parseDate(rec[rhDateCol])
		if !ok {
			continue
		}
		amount, ok := parseAmount(rec[rhAmountCol])
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Date:        date,
			Description: robinhoodDescription(rec),
			Amount:      amount,
		})
	}
	return rows
}

var one = decimal.New(1, 0)

// robinhoodDescription falls back to a derived description when the
// Description column is empty: instrument and trans code plus the quantity
// and price suffixes. A quantity or price of zero or exactly 1 means "not
// applicable" in the export, not a real unit, and is omitted.
func robinhoodDescription(rec []string) string {
	if desc := strings.TrimSpace(rec[rhDescCol]); desc != "" {
		return desc
	}

	var parts []string
	if instrument := strings.TrimSpace(rec[rhInstrumentCol]); instrument != "" {
		parts = append(parts, instrument)
	}
	if code := strings.TrimSpace(rec[rhCodeCol]); code != "" {
		parts = append(parts, code)
	}
	for _, col := range []int{rhQuantityCol, rhPriceCol} {
		raw := strings.TrimSpace(rec[col])
		if raw == "" {
			continue
		}
		value, ok := parseAmount(raw)
		if !ok || value.IsZero() || value.Equal(one) {
			continue
		}
		parts = append(parts, raw)
	}
	return strings.Join(parts, " ")
}
