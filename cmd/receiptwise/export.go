package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veranek/receiptwise/internal/cli"
	"github.com/veranek/receiptwise/internal/config"
	"github.com/veranek/receiptwise/internal/sheets"
)

func exportCmd() *cobra.Command {
	var (
		month  string
		vendor string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to Google Sheets",
		Long: `Replace the configured spreadsheet's contents with the selected
records plus a per-category summary. Authentication comes from the
sheets section of the config file or GOOGLE_SHEETS_* environment
variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := parseRecordFilter(month, vendor, 0, 0)
			if err != nil {
				return err
			}

			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return fmt.Errorf("sheets configuration: %w", err)
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
				fmt.Println(cli.InfoStyle.Render("No records to export."))
				return nil
			}

			writer, err := sheets.NewWriter(ctx, *sheetsConfig)
			if err != nil {
				return err
			}
			if err := writer.Export(ctx, records); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d records", len(records))))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "export only one calendar month (YYYY-MM)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "export only records matching a vendor substring")

	return cmd
}
