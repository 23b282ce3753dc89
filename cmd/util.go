package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/latsic/idbridge/internal/cliconfig"
	"github.com/latsic/idbridge/pkg/client"
)

var (
	greenCheck = color.GreenString("✓")
	redCross   = color.RedString("✗")

	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// BeQuietError signals that the error has already been reported to the user.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

func getClient() (*client.Client, error) {
	// we need the user to provide some server address first
	server := viper.GetString(ServerAddrKey)
	if server == "" {
		return nil, fmt.Errorf("server address not configured, provide via --server or env")
	}

	var adminToken string

	cfg, err := cliconfig.Load()
	if err == nil {
		credential, err := cfg.GetCredential(server)
		if err != nil {
			if !errors.Is(err, cliconfig.ErrCredentialNotFound) {
				return nil, err
			}
		} else {
			adminToken = credential.Token
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if envToken := os.Getenv("IDBRIDGE_TOKEN"); envToken != "" {
		adminToken = envToken
	}

	return client.New(server, client.WithAuthToken(adminToken)), nil
}

func logError(err error, correlationID, msg string) error {
	if correlationID != "" {
		log.Error().Msgf("%s %s (correlation ID: %s)", redCross, msg, correlationID)
	} else {
		log.Error().Msgf("%s %s", redCross, msg)
	}
	log.Error().Msgf("error: %v", err)
	return BeQuietError{}
}

func applyTableFormat(t table.Writer) {
	t.SetStyle(table.StyleLight)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
