// Package parser converts bank and brokerage export files into normalized
// rows. Each parser is pure and best-effort: a malformed line is skipped,
// never fatal, so a partially corrupt export still imports everything it can.
package parser

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Row is a single normalized transaction line. Rows are transient: produced
// here, consumed by the import service, discarded after encryption.
type Row struct {
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	BankCategory string // empty when the source format carries no category
}

// Parser tokenizes one export format into rows.
type Parser interface {
	Parse(content string) []Row
}

// Registry maps format ids to parsers. The set is fixed at construction;
// adding a format means adding a parser file and one entry here.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds the registry with every supported format.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]Parser{
			"chase":     &ChaseParser{},
			"mint":      &MintParser{},
			"robinhood": &RobinhoodParser{},
			"applecard": &AppleCardParser{},
		},
	}
}

// Get returns the parser for a format id.
func (r *Registry) Get(formatID string) (Parser, bool) {
	p, ok := r.parsers[formatID]
	return p, ok
}

// IDs returns all registered format ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
