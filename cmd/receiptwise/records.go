package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/veranek/receiptwise/internal/cli"
	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Browse and manage saved records",
	}

	cmd.AddCommand(listRecordsCmd())
	cmd.AddCommand(updateRecordCmd())
	cmd.AddCommand(deleteRecordCmd())

	return cmd
}

// parseRecordFilter turns the list flags into a store filter.
func parseRecordFilter(month, vendor string, limit, offset int) (service.RecordFilter, error) {
	filter := service.RecordFilter{
		Vendor: vendor,
		Limit:  limit,
		Offset: offset,
	}
	if month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return service.RecordFilter{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
		}
		filter.Month = parsed
	}
	return filter, nil
}

func listRecordsCmd() *cobra.Command {
	var (
		month  string
		vendor string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := parseRecordFilter(month, vendor, limit, offset)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.ListRecords(ctx, currentUser(), filter)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			if len(records) == 0 {
				fmt.Println(cli.InfoStyle.Render("No records found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Date"),
				cli.TableHeaderStyle.Render("Vendor"),
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Total"),
				cli.TableHeaderStyle.Render("ID"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 10),
				strings.Repeat("-", 20),
				strings.Repeat("-", 14),
				strings.Repeat("-", 8),
				strings.Repeat("-", 36))

			for _, record := range records {
				category := record.Category
				if category == "" {
					category = cli.SubtleStyle.Render("(uncategorized)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					record.Date, record.Vendor, category, record.Total, record.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "filter by calendar month (YYYY-MM)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "filter by vendor substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func updateRecordCmd() *cobra.Command {
	var (
		vendor   string
		total    string
		category string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a saved record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			record, err := store.GetRecord(ctx, currentUser(), id)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("no record with id %q", id)
				}
				return fmt.Errorf("failed to load record: %w", err)
			}

			draft := model.Draft{
				Vendor:   record.Vendor,
				Total:    record.Total,
				Category: record.Category,
				Date:     record.Date,
			}
			if cmd.Flags().Changed("vendor") {
				draft.Vendor = vendor
			}
			if cmd.Flags().Changed("total") {
				draft.Total = total
			}
			if cmd.Flags().Changed("category") {
				draft.Category = category
			}
			if cmd.Flags().Changed("date") {
				draft.Date = date
			}

			if err := store.UpdateRecord(ctx, currentUser(), id, draft); err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated record %s", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "new vendor name")
	cmd.Flags().StringVar(&total, "total", "", "new total amount")
	cmd.Flags().StringVar(&category, "category", "", "new category (empty clears it)")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")

	return cmd
}

func deleteRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRecord(ctx, currentUser(), id); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("no record with id %q", id)
				}
				return fmt.Errorf("failed to delete record: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted record %s", id)))
			return nil
		},
	}
}
