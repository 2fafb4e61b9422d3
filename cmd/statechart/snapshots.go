package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/session"
	"github.com/spf13/cobra"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage recorded run snapshots",
	Long:    `List, show, remove and prune the snapshots recorded by run, serve and mcp in the configured store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		switch cfg.Store.Driver {
		case config.DriverNone, config.DriverMemory:
			return fmt.Errorf("store driver %q keeps nothing between commands; configure redis or sqlite", cfg.Store.Driver)
		}
		return nil
	},
}

var snapshotsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			runs, err := m.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs found.")
				return nil
			}
			fmt.Fprintln(out, "Recorded runs:")
			for _, id := range runs {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the last snapshot of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withSessions(cmd, func(m *session.Manager) error {
			snap, err := m.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading run '%s': %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if !asJSON {
				fmt.Fprint(out, runtime.RenderTree(snap))
				fmt.Fprintf(out, "taken at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
				return nil
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling snapshot: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		})
	},
}

var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			failed := 0
			for _, id := range args {
				if err := m.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed run '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d run(s) could not be removed", failed)
			}
			return nil
		})
	},
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove every completed run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			n, err := m.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d completed run(s)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsLsCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsRmCmd)
	snapshotsCmd.AddCommand(snapshotsPruneCmd)

	snapshotsShowCmd.Flags().Bool("json", false, "Print the raw snapshot")
}

func withSessions(cmd *cobra.Command, fn func(*session.Manager) error) error {
	m, closeStore, err := openSessions(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(cmd.Context()) }()
	return fn(m)
}
