package cli

import (
	"fmt"
	"os"

	jsonv2 "encoding/json/v2"

	"encoding/json/jsontext"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// printJSON writes indented JSON to stdout, for piping into jq and friends.
func printJSON(v any) error {
	opts := jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  "))
	if err := jsonv2.MarshalWrite(os.Stdout, v, opts); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println()
	return nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <resource>",
		Short: "Print a resource's records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			records, err := a.gatewayFor(desc).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing %s: %w", desc.Name, err)
			}
			return printJSON(records)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			record, err := a.gatewayFor(desc).GetByID(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("fetching %s %s: %w", desc.Name, args[1], err)
			}
			return printJSON(record)
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm <resource> <id>",
		Aliases: []string{"delete"},
		Short:   "Delete one record",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			if !force {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete %s %s?", desc.Name, args[1]),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := a.gatewayFor(desc).Delete(cmd.Context(), args[1]); err != nil {
				return fmt.Errorf("deleting %s %s: %w", desc.Name, args[1], err)
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
