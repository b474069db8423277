package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// LoginCmd returns the login command.
func LoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and verify the configured credentials",
		Long: `Sign in against the TradHub auth provider with the configured
TRADHUB_IDENTIFIER and TRADHUB_PASSWORD and print the resulting profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			if a.profile.ID == "" {
				fmt.Println("Using pre-issued access token; nothing to sign in.")
				return nil
			}
			fmt.Printf("%s signed in as %s (%s)\n", color.GreenString("✓"), a.profile.DisplayName, a.profile.ID)
			return nil
		},
	}
}
