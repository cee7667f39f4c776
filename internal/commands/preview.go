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

func newPreviewCommand() *cobra.Command {
	var sourceID string
	var userID string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Parse a statement and classify each row without persisting anything",
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

			out := cmd.OutOrStdout()
			if report.BillingMonth != "" {
				fmt.Fprintf(out, "billing month: %s\n", report.BillingMonth)
			}
			fmt.Fprintf(out, "content hash:  %s\n", report.ContentHash)
			fmt.Fprintf(out, "rows: %d new, %d duplicate, %d reconciled\n\n",
				report.New, report.Duplicates, report.Reconciled)

			for _, o := range report.Outcomes {
				status := "new"
				switch {
				case o.Reconciliation:
					status = "reconciled -> " + o.MatchedExpenseID
				case o.Duplicate:
					status = "duplicate of " + o.MatchedExpenseID
				}
				fmt.Fprintf(out, "%s  %-40s %10s  %s\n",
					o.Row.PurchaseDate, o.Row.Description, o.Row.ValueLocal.StringFixed(2), status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceID, "source", "", "import source (csv, xlsx, pdf)")
	cmd.Flags().StringVar(&userID, "user", "", "user the statement belongs to")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
