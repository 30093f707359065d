// Command encrypt-backfill encrypts legacy plaintext rows in place. Rows
// written before field encryption was introduced hold raw text; the tool
// pages through the ledger, probes each sensitive field by attempting
// decryption, and re-writes any field that is not yet an envelope. Safe to
// re-run: already-encrypted rows are left untouched.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/pennyvault/pennyvault/internal/domain/ingest/repository"
	"github.com/pennyvault/pennyvault/pkg/config"
	"github.com/pennyvault/pennyvault/pkg/db"
	"github.com/pennyvault/pennyvault/pkg/envelope"
)

func main() {
	pageSize := flag.Int("page-size", 500, "rows fetched per batch")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	key, err := cfg.Encryption.Key()
	if err != nil {
		logger.Error("failed to load encryption key", "error", err)
		os.Exit(1)
	}
	cipher, err := envelope.NewCipherFromKey(key)
	if err != nil {
		logger.Error("failed to build cipher", "error", err)
		os.Exit(1)
	}

	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	repo := repository.NewPostgresLedgerRepository(database.Pool)
	if err := run(context.Background(), repo, cipher, logger, *pageSize, *dryRun); err != nil {
		logger.Error("backfill failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, repo repository.LedgerRepository, cipher *envelope.Cipher, logger *slog.Logger, pageSize int, dryRun bool) error {
	var (
		afterID    uuid.UUID
		scanned    int
		backfilled int
	)

	for {
		page, err := repo.ListTransactionsPage(ctx, afterID, pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		for _, tx := range page {
			scanned++
			changed, err := backfillRow(ctx, repo, cipher, tx, dryRun)
			if err != nil {
				return err
			}
			if changed {
				backfilled++
			}
		}
		afterID = page[len(page)-1].ID
	}

	logger.Info("backfill finished",
		slog.Int("scanned", scanned),
		slog.Int("backfilled", backfilled),
		slog.Bool("dry_run", dryRun))
	return nil
}

// backfillRow encrypts any field of one row that is still plaintext.
func backfillRow(ctx context.Context, repo repository.LedgerRepository, cipher *envelope.Cipher, tx *repository.Transaction, dryRun bool) (bool, error) {
	description := tx.Description
	amount := tx.Amount
	notes := tx.Notes
	changed := false

	if !cipher.IsEnvelope(description) {
		enc, err := cipher.EncryptString(description)
		if err != nil {
			return false, err
		}
		description = enc
		changed = true
	}
	if !cipher.IsEnvelope(amount) {
		enc, err := cipher.EncryptString(amount)
		if err != nil {
			return false, err
		}
		amount = enc
		changed = true
	}
	if notes != nil && !cipher.IsEnvelope(*notes) {
		enc, err := cipher.EncryptString(*notes)
		if err != nil {
			return false, err
		}
		notes = &enc
		changed = true
	}

	if !changed || dryRun {
		return changed, nil
	}
	if err := repo.UpdateTransactionCiphertext(ctx, tx.ID, description, amount, notes); err != nil {
		return false, err
	}
	return true, nil
}
