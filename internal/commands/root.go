// Package commands assembles the CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meucartao/importer/internal/config"
	"github.com/meucartao/importer/internal/importer"
	"github.com/meucartao/importer/internal/parser"
	"github.com/meucartao/importer/internal/reconcile"
	bqstore "github.com/meucartao/importer/internal/store/bigquery"
	mongostore "github.com/meucartao/importer/internal/store/mongo"
)

// expenseStore is the full backend surface the commands need: the
// reconciliation lookups plus insertion of committed rows.
type expenseStore interface {
	reconcile.Store
	importer.ExpenseWriter
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "importer",
		Short: "Credit card statement import and reconciliation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newImportCommand())

	return rootCmd
}

// buildRegistry wires the built-in parsers with the configured extraction
// model and timeout.
func buildRegistry(cfg *config.Config) *parser.Registry {
	extractor := parser.NewGeminiExtractor(cfg.Extraction.Model)

	r := parser.NewRegistry()
	r.Register(&parser.CSVParser{})
	r.Register(&parser.XLSXParser{})
	r.Register(parser.NewPDFParserWithTimeout(extractor, cfg.Extraction.Timeout))
	return r
}

// buildStore picks the expense store from configuration: Mongo when a URI
// is set, BigQuery otherwise. The returned closer releases the connection.
func buildStore(ctx context.Context, cfg *config.Config) (expenseStore, func() error, error) {
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
