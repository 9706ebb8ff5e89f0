package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"myfinance/filters"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func filtersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect or reset the persisted active filters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active filter criteria",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, cleanup, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			criteria := engine.Criteria()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"criteria":    criteria,
				"activeCount": filters.CountActive(criteria),
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear every active filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, cleanup, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			engine.ClearAll()
			fmt.Fprintln(cmd.OutOrStdout(), "Active filters cleared")
			return nil
		},
	})

	return cmd
}

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved filter presets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, cleanup, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			return printJSON(cmd.OutOrStdout(), engine.Presets())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, cleanup, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if !engine.DeletePreset(args[0]) {
				return fmt.Errorf("preset %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
			return nil
		},
	})

	return cmd
}
