// The worker consumes statement import jobs: it downloads the statement
// from GCS, runs the import end to end, and inserts the rows classified as
// new. Duplicates and reconciliations are reported on the job but never
// inserted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/meucartao/importer/internal/config"
	"github.com/meucartao/importer/internal/gcs"
	"github.com/meucartao/importer/internal/importer"
	"github.com/meucartao/importer/internal/jobs"
	"github.com/meucartao/importer/internal/jobs/inmemory"
	"github.com/meucartao/importer/internal/logger"
	"github.com/meucartao/importer/internal/parser"
	"github.com/meucartao/importer/internal/reconcile"
	bqstore "github.com/meucartao/importer/internal/store/bigquery"
	mongostore "github.com/meucartao/importer/internal/store/mongo"
)

// expenseStore is what the worker needs from a backend: the reconciliation
// lookups plus insertion of committed rows.
type expenseStore interface {
	reconcile.Store
	importer.ExpenseWriter
}

func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open expense store")
	}
	defer closeStore()

	extractor := parser.NewGeminiExtractor(cfg.Extraction.Model)
	registry := parser.NewRegistry()
	registry.Register(&parser.CSVParser{})
	registry.Register(&parser.XLSXParser{})
	registry.Register(parser.NewPDFParserWithTimeout(extractor, cfg.Extraction.Timeout))

	svc := importer.NewService(registry, reconcile.NewEngine(store))

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Worker.QueueSize, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job *jobs.ImportStatementJob) error {
		// Bare object names resolve against the configured statement bucket.
		uri := job.GCSURI
		if !strings.HasPrefix(uri, "gs://") && cfg.Worker.Bucket != "" {
			uri = "gs://" + cfg.Worker.Bucket + "/" + uri
		}

		log.Info().
			Str("job_id", job.JobID).
			Str("user_id", job.UserID).
			Str("source", job.SourceID).
			Str("gcs_uri", uri).
			Msg("Processing import job")

		content, err := gcs.Fetch(ctx, uri)
		if err != nil {
			return fmt.Errorf("fetch statement: %w", err)
		}

		report, err := svc.Import(ctx, importer.Request{
			SourceID: job.SourceID,
			Content:  content,
			UserID:   job.UserID,
			Filename: gcs.Filename(uri),
		})
		if err != nil {
			return err
		}

		if _, err := svc.Commit(ctx, store, report, job.UserID, job.SourceID); err != nil {
			return err
		}

		log.Info().
			Str("job_id", job.JobID).
			Int("new", report.New).
			Int("duplicates", report.Duplicates).
			Int("reconciled", report.Reconciled).
			Msg("Import job completed")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

func openStore(ctx context.Context, cfg *config.Config) (expenseStore, func() error, error) {
	if cfg.Mongo.URI != "" {
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongostore.NewRepository(client.Database(cfg.Mongo.Database))
		return repo, func() error { return client.Disconnect(context.Background()) }, nil
	}
	if cfg.BigQuery.ProjectID == "" {
		return nil, nil, fmt.Errorf("no store configured: set MONGO_URI or BQ_PROJECT_ID")
	}
	repo, err := bqstore.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
