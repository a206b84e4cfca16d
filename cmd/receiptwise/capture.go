package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veranek/receiptwise/internal/acquire"
	"github.com/veranek/receiptwise/internal/capture"
	"github.com/veranek/receiptwise/internal/cli"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
	"github.com/veranek/receiptwise/internal/tui"
)

func captureCmd() *cobra.Command {
	var (
		filePath string
		useTUI   bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a receipt and confirm it as a record",
		Long: `Start a capture session: photograph a receipt, upload an image, or
enter the details manually. Extracted details are shown for correction
before anything is saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			extractor, err := newExtractClient()
			if err != nil {
				return err
			}

			var prompter service.Prompter
			if useTUI {
				prompter = tui.NewPrompter(nil, nil)
			} else {
				prompter = cli.NewPrompter(nil, nil)
			}

			orchestrator, err := capture.New(capture.Config{
				Store:     store,
				Extractor: extractor,
				Prompter:  prompter,
				Camera:    cameraSource(),
			})
			if err != nil {
				return err
			}

			var record *model.Record
			if filePath != "" {
				record, err = orchestrator.RunWithFile(ctx, currentUser(), filePath)
			} else {
				record, err = orchestrator.Run(ctx, currentUser())
			}
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Println(cli.SubtleStyle.Render("Capture canceled."))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %s  %s  (%s)",
				record.Vendor, record.Total, record.Date)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "receipt image to upload, skipping method selection")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "review the draft in a full-screen form")

	return cmd
}

// cameraSource builds the camera frame grabber from config, nil when no
// capture command is configured.
func cameraSource() service.ImageSource {
	command := viper.GetStringSlice("camera.command")
	if len(command) == 0 {
		return nil
	}

	timeout := viper.GetDuration("camera.timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return acquire.CameraSource{Command: command, Timeout: timeout}
}
