package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/PulseBot/internal/store"
)

func NewResultsCommand(config Config) *cobra.Command {
	storeFlags := StoreFlags{DSN: config.DatabaseURL}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print archived survey results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeFlags.DSN == "" {
				return fmt.Errorf("results needs a persistent archive: set --db-dsn or $DATABASE_URL")
			}
			st, err := storeFlags.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return printResults(cmd.Context(), st, cmd.OutOrStdout())
		},
	}

	storeFlags.BindFlags(cmd.Flags())
	return cmd
}

func printResults(ctx context.Context, st store.Store, out io.Writer) error {
	results, err := st.ListResults(ctx)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
