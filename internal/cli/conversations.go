package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradhub-messaging/internal/domain"
	"tradhub-messaging/internal/usecase"
)

// ConversationsCmd returns the conversations command.
func ConversationsCmd() *cobra.Command {
	var contactID, search string

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List your conversations, most recent first",
		Long: `List every conversation with its last-message preview, ordered by
last activity.

--contact seeds the view with a counterpart the way a "contact seller"
action does: an existing conversation is highlighted, otherwise a new
empty one is shown.

Examples:
  messenger conversations
  messenger conversations --search dupont
  messenger conversations --contact 7f1c…`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}

			summaries, err := a.conversations.List(cmd.Context())
			if err != nil {
				return err
			}

			var hint *domain.ContactHint
			if contactID != "" {
				hint = &domain.ContactHint{CounterpartID: contactID}
			}
			if active, ok := a.conversations.ResolveActive(hint, summaries); ok {
				label := active.Summary.CounterpartName
				if active.Placeholder {
					label += color.YellowString(" (nouvelle conversation)")
				}
				fmt.Printf("Active: %s [%s]\n\n", label, active.Summary.CounterpartID)
			}

			summaries = usecase.FilterConversations(summaries, search)
			if len(summaries) == 0 {
				fmt.Println("No conversations.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, s := range summaries {
				when := ""
				if s.LastMessageTime != nil {
					when = formatWhen(*s.LastMessageTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					color.New(color.Bold).Sprint(s.CounterpartName),
					s.CounterpartID,
					truncate(s.LastMessage, 48),
					color.New(color.Faint).Sprint(when),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&contactID, "contact", "", "counterpart id to contact")
	cmd.Flags().StringVar(&search, "search", "", "filter by counterpart name")

	return cmd
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
