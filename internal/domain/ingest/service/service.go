// Package service provides the ingestion orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pennyvault/pennyvault/internal/domain/ingest/dedupe"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/parser"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/repository"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/rules"
	"github.com/pennyvault/pennyvault/pkg/envelope"
	"github.com/pennyvault/pennyvault/pkg/observability"
)

// ErrUnknownFormat is returned when no parser is registered for the
// requested format id.
var ErrUnknownFormat = errors.New("unknown import format")

// ImportFailedError wraps a storage failure during the batch insert. Nothing
// was committed; Rows is the count that would have been inserted.
type ImportFailedError struct {
	Rows int
	Err  error
}

func (e *ImportFailedError) Error() string {
	return fmt.Sprintf("import failed, %d rows not committed: %v", e.Rows, e.Err)
}

func (e *ImportFailedError) Unwrap() error {
	return e.Err
}

// ImportResult contains the outcome of one import batch. Skipped rows split
// by reason: Duplicates matched an existing fingerprint before the insert,
// Conflicts lost the unique-constraint race at insert time.
type ImportResult struct {
	Imported   int
	Skipped    int
	Duplicates int
	Conflicts  int
}

// ImportService orchestrates parse, dedupe, categorize, encrypt and insert
// for one uploaded statement file.
type ImportService struct {
	repo     repository.LedgerRepository
	registry *parser.Registry
	cipher   *envelope.Cipher
	guard    *ImportGuard
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewImportService creates a new import service
func NewImportService(
	repo repository.LedgerRepository,
	registry *parser.Registry,
	cipher *envelope.Cipher,
	guard *ImportGuard,
	logger *slog.Logger,
	tracer trace.Tracer,
) *ImportService {
	return &ImportService{
		repo:     repo,
		registry: registry,
		cipher:   cipher,
		guard:    guard,
		logger:   logger,
		tracer:   tracer,
	}
}

// Guard exposes the in-progress signal for consumers like the alert
// scheduler.
func (s *ImportService) Guard() *ImportGuard {
	return s.guard
}

// Formats lists the registered format ids.
func (s *ImportService) Formats() []string {
	return s.registry.IDs()
}

// ImportBatch runs the full pipeline for one file. The caller supplies the
// rule set already in evaluation order. The in-progress signal is raised for
// the whole call and dropped on every exit path.
//
// Parse, fingerprint, categorize and encrypt are all in-memory; a failure
// anywhere before the insert aborts with no partial writes. A storage
// failure during the insert surfaces as *ImportFailedError.
func (s *ImportService) ImportBatch(ctx context.Context, accountID uuid.UUID, formatID, fileContent string, ruleSet []rules.Rule) (*ImportResult, error) {
	release := s.guard.Begin()
	defer release()

	ctx, span := s.tracer.Start(ctx, "ImportService.ImportBatch", trace.WithAttributes(
		attribute.String("import.format", formatID),
		attribute.String("import.account_id", accountID.String()),
	))
	defer span.End()

	start := time.Now()

	p, ok := s.registry.Get(formatID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, formatID)
	}

	rows := p.Parse(fileContent)
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "import produced no rows",
			slog.String("format", formatID),
			slog.String("account_id", accountID.String()))
		return &ImportResult{}, nil
	}

	hashes := make([]string, len(rows))
	for i, row := range rows {
		hashes[i] = dedupe.Hash(accountID, row.Date, row.Description, row.Amount)
	}

	existing, err := s.repo.FindExistingHashes(ctx, accountID, hashes)
	if err != nil {
		return nil, fmt.Errorf("looking up existing fingerprints: %w", err)
	}

	batch := make([]*repository.Transaction, 0, len(rows))
	duplicates := 0
	for i, row := range rows {
		if _, dup := existing[hashes[i]]; dup {
			duplicates++
			continue
		}

		tx, err := s.buildTransaction(accountID, row, hashes[i], ruleSet)
		if err != nil {
			return nil, fmt.Errorf("encrypting row: %w", err)
		}
		batch = append(batch, tx)
	}

	result := &ImportResult{Duplicates: duplicates}
	if len(batch) > 0 {
		inserted, err := s.repo.BulkInsertTransactions(ctx, batch)
		if err != nil {
			return nil, &ImportFailedError{Rows: len(batch), Err: err}
		}
		result.Imported = inserted
		result.Conflicts = len(batch) - inserted
	}
	result.Skipped = result.Duplicates + result.Conflicts

	elapsed := time.Since(start)
	observability.ImportRows.WithLabelValues(formatID, "imported").Add(float64(result.Imported))
	observability.ImportRows.WithLabelValues(formatID, "duplicate").Add(float64(result.Duplicates))
	observability.ImportRows.WithLabelValues(formatID, "conflict").Add(float64(result.Conflicts))
	observability.ImportDuration.WithLabelValues(formatID).Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("import.rows_imported", result.Imported),
		attribute.Int("import.rows_skipped", result.Skipped),
	)

	s.logger.InfoContext(ctx, "import batch finished",
		slog.String("format", formatID),
		slog.String("account_id", accountID.String()),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Duration("elapsed", elapsed))

	return result, nil
}

// buildTransaction categorizes one parsed row and encrypts its sensitive
// fields into a row ready for insert.
func (s *ImportService) buildTransaction(accountID uuid.UUID, row parser.Row, hash string, ruleSet []rules.Rule) (*repository.Transaction, error) {
	encDesc, err := s.cipher.EncryptString(row.Description)
	if err != nil {
		return nil, err
	}
	encAmount, err := s.cipher.EncryptAmount(row.Amount)
	if err != nil {
		return nil, err
	}

	var category *string
	if c := rules.Categorize(row.Description, row.BankCategory, ruleSet); c != "" {
		category = &c
	}

	return &repository.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		PostedAt:    row.Date,
		Description: encDesc,
		Amount:      encAmount,
		Category:    category,
		DedupeHash:  hash,
	}, nil
}
