package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyvault/pennyvault/internal/domain/common"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/rules"
)

// PgxPool is the subset of pgxpool.Pool the repository needs, kept as an
// interface so tests can substitute pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresLedgerRepository handles database operations for the encrypted ledger
type PostgresLedgerRepository struct {
	pgpool PgxPool
}

// NewPostgresLedgerRepository creates a new ledger repository
func NewPostgresLedgerRepository(pgpool PgxPool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pgpool: pgpool}
}

var _ LedgerRepository = (*PostgresLedgerRepository)(nil)

const (
	findExistingHashesQuery = `
		SELECT dedupe_hash
		FROM transactions
		WHERE account_id = $1 AND dedupe_hash = ANY($2)
	`

	insertTransactionQuery = `
		INSERT INTO transactions (id, account_id, posted_at, description, amount, category, notes, dedupe_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT transactions_account_dedupe_key DO NOTHING
	`

	listCategoryRulesQuery = `
		SELECT id, pattern, match_type, category, priority, created_at, updated_at
		FROM category_rules
		ORDER BY priority, created_at
	`

	createCategoryRuleQuery = `
		INSERT INTO category_rules (id, pattern, match_type, category, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	deleteCategoryRuleQuery = `DELETE FROM category_rules WHERE id = $1`

	countTransactionsSinceQuery = `SELECT COUNT(*) FROM transactions WHERE posted_at >= $1`

	listTransactionsPageQuery = `
		SELECT id, account_id, posted_at, description, amount, category, notes, dedupe_hash, created_at, updated_at
		FROM transactions
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	updateTransactionCiphertextQuery = `
		UPDATE transactions
		SET description = $1, amount = $2, notes = $3, updated_at = $4
		WHERE id = $5
	`
)

// FindExistingHashes returns the subset of the given fingerprints already
// stored for the account.
func (r *PostgresLedgerRepository) FindExistingHashes(ctx context.Context, accountID uuid.UUID, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	rows, err := r.pgpool.Query(ctx, findExistingHashesQuery, accountID, hashes)
	if err != nil {
		return nil, err
	}

	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	for _, h := range found {
		existing[h] = struct{}{}
	}
	return existing, nil
}

// BulkInsertTransactions writes the batch inside a single database
// transaction so a mid-batch failure leaves nothing behind. Rows colliding
// on (account_id, dedupe_hash) are skipped via ON CONFLICT DO NOTHING,
// which also absorbs races with a concurrent import of the same statement.
func (r *PostgresLedgerRepository) BulkInsertTransactions(ctx context.Context, txs []*Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dbTx.Rollback(ctx) }()

	now := time.Now()
	inserted := 0
	for _, t := range txs {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		tag, err := dbTx.Exec(
			ctx, insertTransactionQuery,
			t.ID, t.AccountID, t.PostedAt, t.Description, t.Amount,
			t.Category, t.Notes, t.DedupeHash, now, now,
		)
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

type categoryRuleRow struct {
	ID        uuid.UUID `db:"id"`
	Pattern   string    `db:"pattern"`
	MatchType string    `db:"match_type"`
	Category  string    `db:"category"`
	Priority  int       `db:"priority"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListCategoryRules returns all rules in evaluation order.
func (r *PostgresLedgerRepository) ListCategoryRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := r.pgpool.Query(ctx, listCategoryRulesQuery)
	if err != nil {
		return nil, err
	}

	dbRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[categoryRuleRow])
	if err != nil {
		return nil, err
	}

	ruleSet := make([]rules.Rule, 0, len(dbRows))
	for _, row := range dbRows {
		ruleSet = append(ruleSet, rules.Rule{
			ID:        row.ID,
			Pattern:   row.Pattern,
			MatchType: rules.MatchType(row.MatchType),
			Category:  row.Category,
			Priority:  row.Priority,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return ruleSet, nil
}

type ruleInsertRow struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CreateCategoryRule inserts a new rule and fills in its generated fields.
func (r *PostgresLedgerRepository) CreateCategoryRule(ctx context.Context, rule *rules.Rule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	rows, err := r.pgpool.Query(
		ctx, createCategoryRuleQuery,
		rule.ID, rule.Pattern, string(rule.MatchType), rule.Category, rule.Priority,
	)
	if err != nil {
		return err
	}

	dbRow, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[ruleInsertRow])
	if err != nil {
		return err
	}

	rule.ID = dbRow.ID
	rule.CreatedAt = dbRow.CreatedAt
	rule.UpdatedAt = dbRow.UpdatedAt
	return nil
}

// DeleteCategoryRule removes a rule by ID.
func (r *PostgresLedgerRepository) DeleteCategoryRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, deleteCategoryRuleQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// CountTransactionsSince counts rows posted on or after the given day.
func (r *PostgresLedgerRepository) CountTransactionsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.pgpool.QueryRow(ctx, countTransactionsSinceQuery, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListTransactionsPage returns up to limit rows with IDs greater than
// afterID, in ID order. Pass uuid.Nil to start from the beginning.
func (r *PostgresLedgerRepository) ListTransactionsPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*Transaction, error) {
	rows, err := r.pgpool.Query(ctx, listTransactionsPageQuery, afterID, limit)
	if err != nil {
		return nil, err
	}

	txs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Transaction])
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// UpdateTransactionCiphertext replaces the encrypted fields of one row.
func (r *PostgresLedgerRepository) UpdateTransactionCiphertext(ctx context.Context, id uuid.UUID, description, amount string, notes *string) error {
	tag, err := r.pgpool.Exec(ctx, updateTransactionCiphertextQuery, description, amount, notes, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
