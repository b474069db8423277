package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ThreadCmd returns the thread command.
func ThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <counterpart-id>",
		Short: "Show the message history with one counterpart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			controller, err := a.threadController()
			if err != nil {
				return err
			}

			controller.Select(args[0])
			if err := controller.Load(cmd.Context()); err != nil {
				return err
			}

			state := controller.Snapshot()
			if len(state.Messages) == 0 {
				fmt.Println("No messages yet. Start the conversation with `messenger send`.")
				return nil
			}

			sent := color.New(color.FgGreen)
			received := color.New(color.FgCyan)
			for _, msg := range state.Messages {
				who := received.Sprintf("← %s", msg.SenderID)
				if msg.SenderID == controller.SelfID() {
					who = sent.Sprint("→ moi")
				}
				fmt.Printf("%s  %s  %s\n", color.New(color.Faint).Sprint(formatWhen(msg.CreatedAt)), who, msg.Content)
			}
			return nil
		},
	}
}
