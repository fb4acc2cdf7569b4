package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the CMS backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				if err := survey.AskOne(&survey.Input{Message: "Email:"}, &email, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}

			var password string
			if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
				return err
			}

			token, user, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := a.sess.Login(token, user); err != nil {
				return fmt.Errorf("could not persist session: %w", err)
			}

			name := email
			if n, ok := user["name"].(string); ok && n != "" {
				name = n
			}
			fmt.Printf("Signed in as %s.\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "admin account email (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.Clear(); err != nil {
				return fmt.Errorf("could not clear session: %w", err)
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sess.IsAuthenticated() {
				fmt.Println("Not signed in.")
				return nil
			}

			// confirm against the backend too; a 401 here clears the session
			if err := a.client.Verify(cmd.Context()); err != nil {
				return fmt.Errorf("session check failed: %w", err)
			}

			user := a.sess.User()
			email, _ := user["email"].(string)
			name, _ := user["name"].(string)
			switch {
			case name != "" && email != "":
				fmt.Printf("%s <%s>\n", name, email)
			case email != "":
				fmt.Println(email)
			default:
				fmt.Println("Signed in.")
			}
			return nil
		},
	}
}
