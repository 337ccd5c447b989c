package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/reisftw/duogesto/internal/amqp"
	"github.com/reisftw/duogesto/internal/config"
	"github.com/reisftw/duogesto/internal/log"
	"github.com/reisftw/duogesto/internal/sheets"
	gsheet "github.com/reisftw/duogesto/internal/sheets/google"
	memledger "github.com/reisftw/duogesto/internal/sheets/memory"
	"github.com/reisftw/duogesto/internal/storage"
	"github.com/reisftw/duogesto/internal/storage/memory"
	"github.com/reisftw/duogesto/internal/worker"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent("duogesto-worker")
	log.SetDefault(logger)

	logger.Info("Starting duogesto-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required, the worker consumes change events")
		os.Exit(1)
	}

	var store worker.RecordReader
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
	default:
		store = memory.New()
	}

	var ledger sheets.LedgerWriter
	switch cfg.LedgerBackend {
	case "google":
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		ledger = memledger.New()
		logger.Info("In-memory ledger initialized, rows will not persist")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(store, ledger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeChanges(ctx, func(ev *amqp.ChangeEvent) error {
			return mirror.HandleChangeEvent(ctx, ev)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
