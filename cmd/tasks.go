package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and trigger background tasks",
	Long:  `List, trigger and inspect background maintenance tasks on the server. Requires an admin token (idbridge login).`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
