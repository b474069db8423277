package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tradhub-messaging/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "messenger",
		Short: "TradHub messaging from the terminal",
		Long: `messenger is a client for the TradHub marketplace messaging API.
It lists your conversations, shows message threads and sends messages,
including the "contact seller" flow from product and supplier pages.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.LoginCmd())
	rootCmd.AddCommand(cli.ConversationsCmd())
	rootCmd.AddCommand(cli.ThreadCmd())
	rootCmd.AddCommand(cli.SendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
