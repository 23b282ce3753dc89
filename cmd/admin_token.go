package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/latsic/idbridge/internal/config"
)

var adminTokenTTL time.Duration

// adminTokenCmd mints an admin bearer token from the configured signing key.
// The token unlocks the /v1/admin surface.
var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Mint an admin token for the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss":   "idbridge",
			"sub":   "admin-cli",
			"roles": []string{"admin"},
			"iat":   now.Unix(),
			"exp":   now.Add(adminTokenTTL).Unix(),
		})
		signed, err := token.SignedString([]byte(cfg.Session.SigningKey))
		if err != nil {
			return fmt.Errorf("signing admin token: %w", err)
		}

		log.Info().Msgf("%s Admin token minted (valid for %s):", greenCheck, adminTokenTTL)
		fmt.Println(signed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminTokenCmd)

	adminTokenCmd.Flags().DurationVar(&adminTokenTTL, "ttl", time.Hour, "Lifetime of the minted token")
}
