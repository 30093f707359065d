package parser

import "strings"

// AppleCardParser handles Apple Card monthly exports. Merchant fields
// regularly contain embedded line breaks inside quotes, which the shared
// tokenizer carries across newlines. The export lists charges as positive
// amounts and payments as negative; the ledger stores money out as negative,
// so the sign is flipped.
//
// Columns: Transaction Date, Clearing Date, Description, Merchant, Category,
// Type, Amount (USD), Purchase By
type AppleCardParser struct{}

const (
	acDateCol     = 0
	acDescCol     = 2
	acCategoryCol = 4
	acAmountCol   = 6
	acMinFields   = 7
)

func (p *AppleCardParser) Parse(content string) []Row {
	content = stripBOM(content)

	recs := records(content, ',')
	if len(recs) < 2 {
		return nil
	}

	var rows []Row
	for _, rec := range recs[1:] {
		if len(rec) < acMinFields {
			continue
		}
		date, ok := parseDate(rec[acDateCol])
		if !ok {
			continue
		}
		amount, ok := parseAmount(rec[acAmountCol])
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Date:         date,
			Description:  collapseWhitespace(rec[acDescCol]),
			Amount:       amount.Neg(),
			BankCategory: strings.TrimSpace(rec[acCategoryCol]),
		})
	}
	return rows
}

// collapseWhitespace flattens embedded line breaks and runs of spaces left
// over from multi-line quoted fields.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
