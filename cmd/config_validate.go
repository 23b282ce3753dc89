package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/latsic/idbridge/internal/config"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return logError(err, "", "configuration is invalid")
		}
		log.Info().Msgf("%s Configuration is valid (%d providers, %d clients).",
			greenCheck, len(cfg.Providers), len(cfg.Clients))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
