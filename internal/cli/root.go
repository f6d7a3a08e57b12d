package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "habitpal",
	Short: "Habit tracker with a virtual companion",
	Long:  "HabitPal tracks daily habits and keeps a virtual pet that thrives when you keep them. Single Go binary, data in one SQLite file.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(habitCmd)
	rootCmd.AddCommand(hatchCmd)
}
