package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meucartao/importer/internal/config"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List supported import sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := buildRegistry(config.Load())
			for _, src := range registry.Sources() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", src.ID, src.Name)
			}
			return nil
		},
	}
}
