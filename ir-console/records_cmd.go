package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"irtracker/lib/export"
	"irtracker/lib/models"
	"irtracker/lib/query"
	"irtracker/lib/records"
	"irtracker/lib/store"

	"github.com/spf13/cobra"
)

// listingFlags are the filter and sort flags shared by records, watch and export
type listingFlags struct {
	project    string
	department string
	kind       string
	status     string
	dateRange  string
	search     string
	sort       string
	direction  string
	archive    bool
}

func (f *listingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.project, "project", "", "project name")
	flags.StringVar(&f.department, "department", "", "department name")
	flags.StringVar(&f.kind, "type", "", "IR, CPR or REV")
	flags.StringVar(&f.status, "status", "", "pending, completed, rejected or archived")
	flags.StringVar(&f.dateRange, "range", "", "today, week or month")
	flags.StringVar(&f.search, "search", "", "case-insensitive text search")
	flags.StringVar(&f.sort, "sort", query.SortDate, "date, irNo, project or user")
	flags.StringVar(&f.direction, "direction", query.Descending, "asc or desc")
	flags.BoolVar(&f.archive, "archive", false, "only archived records")
}

func (f *listingFlags) listing() query.Listing {
	params := map[string]string{
		"project":    f.project,
		"department": f.department,
		"type":       f.kind,
		"status":     f.status,
		"date_range": f.dateRange,
		"search":     f.search,
		"sort":       f.sort,
		"direction":  f.direction,
	}
	if f.archive {
		params["status"] = string(models.StatusArchived)
	}
	return query.ListingFromQuery(params)
}

// printRecords writes list as an aligned table
func printRecords(out io.Writer, list []models.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tPROJECT\tDEPT\tUSER\tDESCRIPTION\tSENT")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, records.ItemTypeText(r), r.Status, r.Project, r.DeptAbbr, r.User, truncate(description(r), 40), r.SentAt)
	}
	return w.Flush()
}

func description(r models.Record) string {
	if r.Desc != "" {
		return r.Desc
	}
	return r.RevNote
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

func newRecordsCommand(app *console) *cobra.Command {
	var flags listingFlags

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List the records visible to the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context())
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			list := flags.listing().Apply(s.Records())
			if err := printRecords(cmd.OutOrStdout(), list); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records\n", len(list))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newWatchCommand(app *console) *cobra.Command {
	var (
		flags    listingFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload records periodically and print a summary of each refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.authorize(cmd.Context())
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = app.interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := store.New(app.api, sess.User.Role, sess.User.Username, app.logger)
			listing := flags.listing()
			out := cmd.OutOrStdout()
			poller := &store.Poller{
				Store:    s,
				Interval: interval,
				OnReload: func(int) {
					list := listing.Apply(s.Records())
					stats := query.Summarize(list)
					fmt.Fprintf(out, "[%s] %d records: %d pending, %d completed, %d rejected, %d archived\n",
						s.LoadedAt().Format("15:04:05"), stats.Total, stats.Pending, stats.Completed, stats.Rejected, stats.Archived)
				},
				OnError: func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", err)
				},
			}

			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (defaults to IRTRACKER_POLL_INTERVAL or 30s)")
	return cmd
}

func newExportCommand(app *console) *cobra.Command {
	var (
		flags  listingFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered records as TSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format == export.FormatXLSX && output == "" {
				return errors.New("xlsx exports need --out")
			}

			sess, err := app.authorize(cmd.Context())
			if err != nil {
				return err
			}
			s, err := app.loadStore(cmd.Context(), sess)
			if err != nil {
				return err
			}

			list := flags.listing().Apply(s.Records())
			body, _, err := export.Render(format, list)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(list), output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", export.FormatTSV, "tsv or xlsx")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (stdout for tsv when omitted)")
	return cmd
}
