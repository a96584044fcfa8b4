package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for qualitycheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qualitycheck",
		Short: "Data quality checks for the studio journals",
		Long: `qualitycheck validates the rows of the sales (Продажи), schedule
(Тренировки) and inquiries (Обращения) sheets and keeps the task list
(Задачи) in sync with the problems found.

Tasks that are fixed disappear from the list on the next run; tasks added
by hand are kept. Every run is recorded in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .qualitycheck.yaml in current, XDG config or home directory)")
	cmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
