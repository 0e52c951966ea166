package cli

import (
	"fmt"
	"os"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/pkg/export"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "export <claims|sources> <file>",
		Short:     "Export claims or sources as CSV",
		Args:      cobra.MatchAll(cobra.ExactArgs(2), validKind),
		ValidArgs: []string{"claims", "sources"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := bootstrap.NewClaimStorage(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[1], err)
			}
			defer f.Close()

			var n int
			if args[0] == "claims" {
				n, err = export.Claims(ctx, s, f)
			} else {
				n, err = export.Sources(ctx, s, f)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s to %s\n", n, args[0], args[1])
			return f.Close()
		},
	}
}

func validKind(cmd *cobra.Command, args []string) error {
	if args[0] != "claims" && args[0] != "sources" {
		return fmt.Errorf("unknown export %q, expected claims or sources", args[0])
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the claims, sources and answers tables",
		Long: `Apply the embedded schema migrations to the database selected by DB_DRIVER.
The tables are otherwise created on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := bootstrap.NewClaimStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
