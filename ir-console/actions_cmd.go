package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"irtracker/lib/documents"
	"irtracker/lib/models"
	"irtracker/lib/records"
	"irtracker/lib/store"
	"irtracker/lib/submission"

	"github.com/spf13/cobra"
)

// controllerRoles may change a record's state; everyone may archive their own
var controllerRoles = []string{models.RoleDC, models.RoleAdmin}

func rolesFor(action store.Action) []string {
	if action == store.ActionArchive || action == store.ActionUnarchive {
		return nil
	}
	return controllerRoles
}

func newActionCommand(app *console, action store.Action) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   string(action) + " ID",
		Short: fmt.Sprintf("%s a record", capitalize(string(action))),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context(), rolesFor(action)...)
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			record, err := s.Get(args[0])
			if err != nil {
				return err
			}
			if err := s.Apply(cmd.Context(), action, args[0], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", records.Describe(record), action)
			return nil
		},
	}
	if action == store.ActionReject {
		cmd.Flags().StringVarP(&reason, "reason", "r", "", "rejection reason")
		_ = cmd.MarkFlagRequired("reason")
	}
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func newRenumberCommand(app *console) *cobra.Command {
	return &cobra.Command{
		Use:   "renumber ID NUMBER",
		Short: "Give a record a custom number (bare serial, short or full id)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context(), controllerRoles...)
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			confirmed, err := s.Renumber(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s renumbered to %s\n", args[0], confirmed)
			return nil
		},
	}
}

func newBulkCommand(app *console) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "bulk ACTION ID...",
		Short: "Apply one action to several records, continuing past failures",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := store.ParseAction(args[0])
			if err != nil {
				return err
			}
			if action == store.ActionRenumber {
				return errors.New("renumber is not a bulk action")
			}

			sess, err := app.authorize(cmd.Context(), rolesFor(action)...)
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			resp := store.ToResponse(action, s.BulkAction(cmd.Context(), action, args[1:], reason))
			out := cmd.OutOrStdout()
			for _, r := range resp.Results {
				if r.Success {
					fmt.Fprintf(out, "ok      %s\n", r.ID)
				} else {
					fmt.Fprintf(out, "failed  %s: %s\n", r.ID, r.Error)
				}
			}
			fmt.Fprintf(out, "%d succeeded, %d failed\n", resp.Succeeded, resp.Failed)
			if resp.Failed > 0 {
				return fmt.Errorf("%d of %d %s actions failed", resp.Failed, len(resp.Results), action)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "rejection reason (reject only)")
	return cmd
}

func newDocumentCommand(app *console) *cobra.Command {
	var number, dir string

	cmd := &cobra.Command{
		Use:   "document ID",
		Short: "Generate a record's Word document, renumbering and approving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context(), controllerRoles...)
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			if number != "" {
				if err := s.SetCustomNumber(args[0], number); err != nil {
					return err
				}
			}
			issuer := &documents.Issuer{Store: s, Generator: app.api, Logger: app.logger}
			doc, err := issuer.Issue(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}

			path := filepath.Join(dir, doc.FileName)
			if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %s\n", path)
			if doc.ID != doc.OldID {
				fmt.Fprintf(out, "%s renumbered to %s\n", doc.OldID, doc.ID)
			}
			if doc.Approved {
				fmt.Fprintf(out, "%s marked as done\n", doc.ID)
			}
			if doc.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", doc.Warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&number, "number", "n", "", "custom number to issue the document under")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save the document in")
	return cmd
}

func newNextIDCommand(app *console) *cobra.Command {
	var project, department, requestType string

	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Predict the identifier the next submission on a project will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context())
			if err != nil {
				return err
			}
			if department == "" {
				department = sess.User.Department
			}

			next, err := submission.NextNumber(cmd.Context(), app.api, project, department, requestType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", next.PredictedID, next.ShortID)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name")
	cmd.Flags().StringVar(&department, "department", "", "department (defaults to yours)")
	cmd.Flags().StringVar(&requestType, "type", models.RequestTypeIR, "IR or CPR")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
