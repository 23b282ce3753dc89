package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Administrative audit commands",
	Long:  `View login audit entries on the server. Requires an admin token (idbridge login).`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
