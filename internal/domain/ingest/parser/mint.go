package parser

import "strings"

// MintParser handles Mint transaction exports. Amounts are always positive;
// the Transaction Type column carries the sign (debit = money out).
//
// Columns: Date, Description, Original Description, Amount, Transaction Type,
// Category, Account Name, Labels, Notes
type MintParser struct{}

const (
	mintDateCol     = 0
	mintDescCol     = 1
	mintAmountCol   = 3
	mintTypeCol     = 4
	mintCategoryCol = 5
	mintMinFields   = 6
)

func (p *MintParser) Parse(content string) []Row {
	content = stripBOM(content)

	recs := records(content, ',')
	if len(recs) < 2 {
		return nil
	}

	var rows []Row
	for _, rec := range recs[1:] {
		if len(rec) < mintMinFields {
			continue
		}
		date, ok := parseDate(rec[mintDateCol])
		if !ok {
			continue
		}
		amount, ok := parseAmount(rec[mintAmountCol])
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rec[mintTypeCol]), "debit") {
			amount = amount.Neg()
		}
		rows = append(rows, Row{
			Date:         date,
			Description:  strings.TrimSpace(rec[mintDescCol]),
			Amount:       amount,
			BankCategory: strings.TrimSpace(rec[mintCategoryCol]),
		})
	}
	return rows
}
