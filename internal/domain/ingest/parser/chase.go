package parser

import "strings"

// ChaseParser handles Chase card exports. Chase ships both comma- and
// tab-delimited files with the same column layout, so the delimiter is
// detected from the first line.
//
// Columns: Transaction Date, Post Date, Description, Category, Type, Amount, Memo
type ChaseParser struct{}

const (
	chaseDateCol     = 0
	chaseDescCol     = 2
	chaseCategoryCol = 3
	chaseAmountCol   = 5
	chaseMinFields   = 6
)

func (p *ChaseParser) Parse(content string) []Row {
	content = stripBOM(content)
	delim := detectDelimiter(content)

	recs := records(content, delim)
	if len(recs) < 2 {
		return nil
	}

	var rows []Row
	for _, rec := range recs[1:] {
		if len(rec) < chaseMinFields {
			continue
		}
		date, ok := parseDate(rec[chaseDateCol])
		if !ok {
			continue
		}
		amount, ok := parseAmount(rec[chaseAmountCol])
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Date:         date,
			Description:  strings.TrimSpace(rec[chaseDescCol]),
			Amount:       amount,
			BankCategory: strings.TrimSpace(rec[chaseCategoryCol]),
		})
	}
	return rows
}
