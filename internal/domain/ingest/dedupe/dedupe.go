// Package dedupe computes content fingerprints for imported transactions.
//
// The fingerprint must be computed on plaintext, before field encryption:
// envelopes are randomized per call, so hashing ciphertext would never match
// across imports. Category and notes are deliberately excluded — two rows
// differing only there are still the same transaction.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const separator = "|"

// Hash returns a deterministic fingerprint for one transaction. Inputs are
// normalized first — date truncated to the calendar day, description
// lower-cased and trimmed, amount fixed to two decimals — so re-importing
// the same statement always reproduces the same digest.
func Hash(accountID uuid.UUID, date time.Time, description string, amount decimal.Decimal) string {
	normalized := strings.Join([]string{
		accountID.String(),
		date.Format("2006-01-02"),
		strings.ToLower(strings.TrimSpace(description)),
		amount.StringFixed(2),
	}, separator)

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
