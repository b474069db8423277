package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradhub-messaging/internal/domain"
)

// SendCmd returns the send command.
func SendCmd() *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "send <counterpart-id> <text>",
		Short: "Send a message to a counterpart",
		Long: `Send one message. --product attaches a product reference, the way a
"contact seller" action from a product page does.

Examples:
  messenger send 7f1c… "Quel est le prix?"
  messenger send 7f1c… "Est-ce disponible?" --product 42ab…`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			controller, err := a.threadController()
			if err != nil {
				return err
			}

			controller.SelectContact(domain.ContactHint{
				CounterpartID: args[0],
				ProductID:     productID,
			})
			if err := controller.Send(cmd.Context(), args[1]); err != nil {
				return err
			}

			fmt.Printf("%s message sent to %s\n", color.GreenString("✓"), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "product id to attach to the message")

	return cmd
}
