// Package rules assigns categories to imported rows via user-configured
// pattern rules. Matching is first-match-wins over an ordered rule list —
// no scoring, no backtracking — because users tune rule priority precisely
// to control tie-breaking.
package rules

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MatchType selects how a rule pattern is compared to a description.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// Valid reports whether the match type is one of the known variants.
func (m MatchType) Valid() bool {
	return m == MatchExact || m == MatchContains
}

// DefaultPriority returns the priority a new rule gets when none is given.
// Exact rules sit at 0 so they beat contains rules (100) on ties unless the
// user reprioritizes.
func (m MatchType) DefaultPriority() int {
	if m == MatchExact {
		return 0
	}
	return 100
}

// Rule is one user-configured categorization rule.
type Rule struct {
	ID        uuid.UUID
	Pattern   string
	MatchType MatchType
	Category  string
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sort orders rules for evaluation: ascending priority, then creation time
// for a stable order among equals.
func Sort(ruleSet []Rule) {
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority != ruleSet[j].Priority {
			return ruleSet[i].Priority < ruleSet[j].Priority
		}
		return ruleSet[i].CreatedAt.Before(ruleSet[j].CreatedAt)
	})
}

// Categorize returns the category for a description: the first matching rule
// in the given order wins, falling back to the bank-supplied category, then
// to "" (uncategorized). The caller supplies ruleSet already sorted.
func Categorize(description, bankCategory string, ruleSet []Rule) string {
	desc := strings.ToLower(description)

	for _, r := range ruleSet {
		pattern := strings.ToLower(r.Pattern)
		switch r.MatchType {
		case MatchExact:
			if desc == pattern {
				return r.Category
			}
		case MatchContains:
			if strings.Contains(desc, pattern) {
				return r.Category
			}
		}
	}

	return bankCategory
}
