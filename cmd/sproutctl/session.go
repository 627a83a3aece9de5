package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or clear the stored session",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Evaluate the stored token and print the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := e.authority.CheckSession(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", state.Status)
			if !state.IsAuthenticated() {
				return nil
			}
			if sub := state.User.Subject(); sub != "" {
				fmt.Fprintf(out, "subject: %s\n", sub)
			}
			user, err := e.creds.GetUserData(cmd.Context())
			if err != nil {
				return err
			}
			if user != nil {
				data, err := json.MarshalIndent(user, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "profile: %s\n", data)
			}
			return nil
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Wipe the whole store, ending the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.authority.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	cmd.AddCommand(status, logout)
	return cmd
}
