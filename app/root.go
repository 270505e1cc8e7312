// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-overtime-admin",
	Short: "go-overtime-admin is a web-based overtime tracking tool",
	Long: `go-overtime-admin is a web-based tool for tracking employee overtime
hours, with a per-group admin view for managing users and their records.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
