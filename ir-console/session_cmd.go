package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"irtracker/lib/session"

	"github.com/spf13/cobra"
)

func newLoginCommand(app *console) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in against the IR API and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := app.sessions.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := app.current.SetCurrent(cmd.Context(), sess.ID); err != nil {
				return err
			}

			home, _ := session.HomePath(sess.User.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s, %s), home %s\n", sess.User.Username, sess.User.Role, sess.User.Department, home)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand(app *console) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.current.Current(cmd.Context())
			if errors.Is(err, session.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			if err := app.sessions.Logout(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app *console) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context())
			if err != nil {
				return err
			}
			resp := app.sessions.Response(cmd.Context(), sess)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:       %s (%s)\n", resp.User.Username, resp.User.Fullname)
			fmt.Fprintf(out, "Role:       %s\n", resp.User.Role)
			fmt.Fprintf(out, "Department: %s\n", resp.User.Department)
			fmt.Fprintf(out, "Expires:    %s\n", resp.ExpiresAt)
			fmt.Fprintf(out, "Uptime:     %s\n", time.Duration(resp.UptimeSeconds)*time.Second)
			return nil
		},
	}
}
