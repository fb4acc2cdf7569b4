package cli

import (
	"fmt"

	"agencyctl/internal/adapters/driving/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newAdminCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "admin <resource>",
		Short: "Open the interactive admin page for a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			// reads are public, but the page exists to write; gate it the way
			// the web admin gates its routes
			if !desc.LocalOnly && !a.sess.IsAuthenticated() {
				return fmt.Errorf("the %s page needs a session; run `agencyctl login` first", desc.Name)
			}

			notifier := tui.NewChanNotifier()
			store := a.storeFor(desc, notifier)
			page := tui.NewPage(cmd.Context(), store, notifier)

			_, err = tea.NewProgram(page, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources this client can manage",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, desc := range a.reg.All() {
				marker := ""
				if desc.LocalOnly {
					marker = "  (local)"
				}
				fmt.Printf("%-16s %s%s\n", desc.Name, desc.Title, marker)
			}
			return nil
		},
	}
}
