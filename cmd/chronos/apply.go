package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Move meetings to their new hosts",
	Long: `apply reads assignment commands, as written by "reconcile -c", updates the
host of every meeting through the Zoom API and saves the new hosts in the store.`,
	Example: `  chronos apply -i commands.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		var in commandFile
		if err := readJSON(input, &in); err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, execErr := a.executor.Execute(cmd.Context(), in.Commands, progressPrinter())
		if report != nil {
			if err := writeJSON(output, report); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "updated: %d, errors: %d\n", len(report.Successes), len(report.Errors))
		}
		return execErr
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("input", "i", "-", "Commands JSON file ({\"commands\": [...]}), - for stdin")
	applyCmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
}
