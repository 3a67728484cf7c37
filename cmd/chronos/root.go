package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	quiet    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chronos",
	Short: "Reconcile class schedules with Zoom meetings.",
	Long: `chronos matches timetable rows to Zoom meetings and instructors,
reports which meetings are hosted by the wrong account and moves them
to the right one.

Configuration is read from the environment and from a .env file.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "", "Override LOG_LEVEL. Available: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress messages")
}

// progressPrinter writes progress messages to stderr so stdout stays JSON
func progressPrinter() func(string) {
	if quiet {
		return nil
	}
	return func(msg string) {
		fmt.Fprintln(os.Stderr, msg)
	}
}
