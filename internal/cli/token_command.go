package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/tokens"
)

type TokenOptions struct {
	Subject string
	TTL     time.Duration
}

// NewTokenCommand mints an HS256 admin token signed with JWT_SECRET.
func NewTokenCommand(globalOptions *GlobalOptions) *cobra.Command {
	tokenOptions := &TokenOptions{}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := globalOptions.Conf
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			ttl := tokenOptions.TTL
			if ttl <= 0 {
				ttl = cfg.JWT.TokenTTL
			}
			tok, err := tokens.GenerateAccessToken(cfg.JWT.Secret, tokenOptions.Subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenOptions.Subject, "subject", "admin", "Subject (sub claim) of the token.")
	tokenCmd.Flags().DurationVar(&tokenOptions.TTL, "ttl", 0, "Token lifetime. (Env: JWT_TOKEN_TTL_MINUTES)")
	return tokenCmd
}
