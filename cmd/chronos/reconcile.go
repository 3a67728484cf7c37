package main

import (
	"fmt"
	"os"

	"chronos-reconciler/internal/domain/entity"

	"github.com/spf13/cobra"
)

type scheduleFile struct {
	Schedules []entity.ScheduleRecord `json:"schedules" validate:"required,dive"`
}

type reconcileOutput struct {
	Results    []entity.ReconciliationResult `json:"results"`
	Summary    entity.ReconciliationSummary  `json:"summary"`
	Duplicates int                           `json:"duplicates"`
}

type commandFile struct {
	Commands []entity.AssignmentCommand `json:"commands" validate:"required,min=1,dive"`
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Classify schedule rows against the stored users and meetings",
	Example: `  chronos reconcile -i schedules.json -o results.json -c commands.json
  cat schedules.json | chronos reconcile -i -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		commandsPath, _ := cmd.Flags().GetString("commands")

		var in scheduleFile
		if err := readJSON(input, &in); err != nil {
			return err
		}

		// Rows repeated in the same file only differ by duration
		schedules, duplicates := entity.DeduplicateSchedules(nil, in.Schedules)

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if duplicates > 0 {
			a.log.Info("Skipped duplicate schedules", "duplicates", duplicates)
		}

		results, err := a.reconciler.Reconcile(cmd.Context(), schedules, progressPrinter())
		if err != nil {
			return err
		}

		summary := entity.Summarize(results)
		if err := writeJSON(output, reconcileOutput{Results: results, Summary: summary, Duplicates: duplicates}); err != nil {
			return err
		}

		if commandsPath != "" {
			commands := entity.CommandsFromResults(results)
			if commands == nil {
				commands = []entity.AssignmentCommand{}
			}
			if err := writeJSON(commandsPath, commandFile{Commands: commands}); err != nil {
				return err
			}
		}

		fmt.Fprintf(os.Stderr, "assigned: %d, to update: %d, not found: %d\n", summary.Assigned, summary.ToUpdate, summary.NotFound)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().StringP("input", "i", "-", "Schedules JSON file ({\"schedules\": [...]}), - for stdin")
	reconcileCmd.Flags().StringP("output", "o", "", "Write results to this file instead of stdout")
	reconcileCmd.Flags().StringP("commands", "c", "", "Also write the derived assignment commands to this file")
}
