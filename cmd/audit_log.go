package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/latsic/idbridge/pkg/client"
)

var (
	auditLogLimit    int
	auditLogProvider string
	auditLogUserID   string
	auditLogAction   string
)

// auditLogCmd retrieves and displays login audit entries.
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:    uint(auditLogLimit),
			Provider: auditLogProvider,
			UserID:   auditLogUserID,
			Action:   auditLogAction,
		})
		if err != nil {
			return logError(err, correlation, "failed to fetch audit log")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Provider", "Subject", "User", "OK", "Error",
		})

		for _, e := range audits {
			status := greenCheck
			if !e.Success {
				status = redCross
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				e.Provider,
				truncate(e.SubjectID, 24),
				truncate(e.UserID, 24),
				status,
				e.Error,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntVarP(&auditLogLimit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditLogProvider, "provider", "", "Filter by provider")
	auditLogCmd.Flags().StringVar(&auditLogUserID, "user", "", "Filter by local user id")
	auditLogCmd.Flags().StringVar(&auditLogAction, "action", "", "Filter by action (e.g. login.failure)")
}
