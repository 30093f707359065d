// Package repository provides data access for the encrypted ledger.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pennyvault/pennyvault/internal/domain/ingest/rules"
)

// Transaction is a ledger row at rest. Description, Amount and Notes hold
// envelope ciphertext; Category stays plaintext because it drives
// server-side filtering and aggregation. DedupeHash is computed from
// plaintext fields before encryption and is unique per account.
type Transaction struct {
	ID          uuid.UUID `db:"id"`
	AccountID   uuid.UUID `db:"account_id"`
	PostedAt    time.Time `db:"posted_at"`
	Description string    `db:"description"`
	Amount      string    `db:"amount"`
	Category    *string   `db:"category"`
	Notes       *string   `db:"notes"`
	DedupeHash  string    `db:"dedupe_hash"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// LedgerRepository defines data access for imports, rules and the backfill tool.
type LedgerRepository interface {
	// FindExistingHashes returns which of the given fingerprints already
	// exist for the account.
	FindExistingHashes(ctx context.Context, accountID uuid.UUID, hashes []string) (map[string]struct{}, error)

	// BulkInsertTransactions inserts a batch atomically, silently skipping
	// rows that collide on (account_id, dedupe_hash). Returns the number
	// actually inserted.
	BulkInsertTransactions(ctx context.Context, txs []*Transaction) (int, error)

	// Category rules, ordered for evaluation (ascending priority).
	ListCategoryRules(ctx context.Context) ([]rules.Rule, error)
	CreateCategoryRule(ctx context.Context, rule *rules.Rule) error
	DeleteCategoryRule(ctx context.Context, id uuid.UUID) error

	// Used by the alert evaluator.
	CountTransactionsSince(ctx context.Context, since time.Time) (int64, error)

	// Used by the encryption backfill tool.
	ListTransactionsPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*Transaction, error)
	UpdateTransactionCiphertext(ctx context.Context, id uuid.UUID, description, amount string, notes *string) error
}
