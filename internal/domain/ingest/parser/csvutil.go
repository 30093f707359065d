package parser

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// stripBOM removes a leading UTF-8 byte-order mark.
func stripBOM(content string) string {
	return strings.TrimPrefix(content, "\uFEFF")
}

// detectDelimiter inspects only the first line: a tab anywhere in it means
// the whole file is tab-delimited, otherwise comma.
func detectDelimiter(content string) rune {
	line, _, _ := strings.Cut(content, "\n")
	if strings.ContainsRune(line, '\t') {
		return '\t'
	}
	return ','
}

// records tokenizes delimited text into records. Quote state is tracked
// across newlines, so a quoted field may embed line breaks; a record is only
// complete when a line terminator appears outside quotes. A doubled quote
// inside a quoted field is an escaped quote. Empty lines yield no record.
func records(content string, delim rune) [][]string {
	var (
		recs     [][]string
		rec      []string
		field    strings.Builder
		inQuotes bool
	)

	flushField := func() {
		rec = append(rec, field.String())
		field.Reset()
	}
	flushRecord := func() {
		if field.Len() == 0 && len(rec) == 0 {
			return // blank line
		}
		flushField()
		recs = append(recs, rec)
		rec = nil
	}

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == delim && !inQuotes:
			flushField()
		case (r == '\n' || r == '\r') && !inQuotes:
			if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRecord()
		default:
			field.WriteRune(r)
		}
	}
	flushRecord()

	return recs
}

// parseAmount parses a monetary string. Currency symbols, thousands
// separators and whitespace are stripped; an accounting-style "(123.45)"
// means -123.45.
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			return r
		}
		return -1 // drops $, €, £, commas, spaces
	}, s)
	if s == "" || s == "-" || s == "+" {
		return decimal.Decimal{}, false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// parseDate parses ISO (YYYY-MM-DD, optional time suffix) and US slash/dash
// dates. Two-digit years follow the bank-export convention: 00-49 → 2000s,
// 50-99 → 1900s.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year = normalizeYear(year)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false // e.g. February 31st
	}
	return t, true
}

func normalizeYear(year int) int {
	if year >= 100 {
		return year
	}
	if year < 50 {
		return 2000 + year
	}
	return 1900 + year
}
