package main

import (
	"fmt"
	"time"

	"github.com/aretw0/statechart/internal/config"
	"github.com/aretw0/statechart/internal/demo"
	"github.com/aretw0/statechart/internal/presentation/tui"
	"github.com/aretw0/statechart/pkg/runner"
	"github.com/spf13/cobra"
)

// autoCompleteDelay simulates the network when activities are not scripted.
const autoCompleteDelay = 750 * time.Millisecond

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the battle-royale chart",
	Long: `Plays a scenario against the battle-royale chart and prints the final configuration.
With --interactive, events are read from stdin instead and activities complete on their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		scenarioPath, _ := cmd.Flags().GetString("scenario")
		fast, _ := cmd.Flags().GetBool("fast")

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		opts := demo.DefaultOptions()
		if fast {
			opts = demo.Options{}
		}
		a, err := newApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		if err := a.start(ctx); err != nil {
			return fmt.Errorf("failed to start chart: %w", err)
		}

		out := cmd.OutOrStdout()
		render := tui.TreeRenderer(out)

		if interactive {
			tui.PrintBanner(out)
			a.acts.AutoComplete(ctx, autoCompleteDelay, demo.ActivityConnect, demo.ActivityMatchmaking)

			console := runner.NewConsole(a.loop, cmd.InOrStdin(), out, runner.WithConsoleRenderer(render))
			if err := console.Run(ctx); err != nil {
				sm.CheckRace()
				if sm.Interrupted() {
					fmt.Fprintln(out, "\nInterrupted.")
					return nil
				}
				return err
			}
			return nil
		}

		sc := demo.DefaultScenario()
		if scenarioPath != "" {
			if sc, err = config.LoadScenario(scenarioPath); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "▶ %s: scenario %q (%d steps)\n", demo.Name, sc.Name, len(sc.Steps))
		if err := demo.Play(ctx, a.loop, a.acts, sc, logger); err != nil {
			if sm.Interrupted() {
				fmt.Fprintln(out, "\nInterrupted.")
				return nil
			}
			return err
		}

		snap := a.loop.Snapshot()
		fmt.Fprint(out, render(snap))
		fmt.Fprintf(out, "run %s\n", snap.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("interactive", "i", false, "Read events from stdin")
	runCmd.Flags().String("scenario", "", "YAML scenario file (defaults to the bundled scenario)")
	runCmd.Flags().Bool("fast", false, "Skip the simulated boot and countdown delays")
}
