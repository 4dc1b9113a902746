package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dayplan/internal/auth"
)

func newTokenCmd(f *rootFlags) *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Long:  "Sign an HS256 token with auth.secret. The token authenticates API calls as --user until it expires.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return fmt.Errorf("%w: --user is required", errUsage)
			}
			s, err := loadSettings(f)
			if err != nil {
				return err
			}
			if s.AuthSecret == "" {
				return fmt.Errorf("%w: set auth.secret or DAYPLAN_AUTH_SECRET", auth.ErrSigningDisabled)
			}
			if ttl == 0 {
				ttl = s.TokenTTL
			}

			a, err := auth.New(auth.Options{
				Secret:   []byte(s.AuthSecret),
				Audience: s.AuthAudience,
				Issuer:   s.AuthIssuer,
			})
			if err != nil {
				return err
			}
			token, err := a.Issue(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}
