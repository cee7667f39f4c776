package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meucartao/importer/internal/config"
	"github.com/meucartao/importer/internal/importer"
	"github.com/meucartao/importer/internal/logger"
	"github.com/meucartao/importer/internal/reconcile"
)

func newImportCommand() *cobra.Command {
	var sourceID string
	var userID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a statement, classify each row and insert the new ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithContext(cmd.Context(), logger.New())
			cfg := config.Load()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read statement file: %w", err)
			}

			store, closeStore, err := buildStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := importer.NewService(buildRegistry(cfg), reconcile.NewEngine(store))
			report, err := svc.Import(ctx, importer.Request{
				SourceID: sourceID,
				Content:  content,
				UserID:   userID,
				Filename: filepath.Base(args[0]),
			})
			if err != nil {
				return err
			}

			inserted, err := svc.Commit(ctx, store, report, userID, sourceID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d of %d rows (%d duplicates, %d reconciled)\n",
				len(inserted), len(report.Outcomes), report.Duplicates, report.Reconciled)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceID, "source", "", "import source (csv, xlsx, pdf)")
	cmd.Flags().StringVar(&userID, "user", "", "user the statement belongs to")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
