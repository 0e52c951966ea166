// Package cli implements the factgraph batch command line.
package cli

import (
	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/internal/util"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "factgraph",
		Short: "factgraph - claim, source and relation graph tooling",
		Long: `factgraph stores claims with their sources, loads the sources into a
relation graph and renders the site, entity and topic views.

It does not decide whether a claim is true.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			bootstrap.InitLogger("factgraph")
		},
	}

	rootCmd.AddCommand(
		newLoadCmd(),
		newRenderCmd(),
		newExportCmd(),
		newRephraseCmd(),
		newSummarizeCmd(),
		newMigrateCmd(),
		newScrapeCmd(),
	)
	return rootCmd
}
