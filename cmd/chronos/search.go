package main

import (
	"chronos-reconciler/internal/usecase"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored meetings by topic, id or host name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")

		filter := usecase.MeetingFilter{Host: host}
		if len(args) == 1 {
			filter.Query = args[0]
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		meetings, err := a.reconciler.SearchMeetings(cmd.Context(), filter, progressPrinter())
		if err != nil {
			return err
		}
		return writeJSON("", meetings)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().String("host", "", "Only meetings whose host name contains this text")
}
