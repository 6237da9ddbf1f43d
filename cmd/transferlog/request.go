package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtatools/transferlog/internal/domain"
	"github.com/dtatools/transferlog/internal/service"
)

func buildRequestCommand() *cobra.Command {
	var (
		requestor    string
		purpose      string
		dateStr      string
		outputDir    string
		computer     string
		showProgress bool
		assumeYes    bool
	)

	cmd := &cobra.Command{
		Use:   "request [files and folders...]",
		Short: "Record a transfer request",
		Long: `Records a transfer request: inventories the given files and folders
and writes the request detail CSV plus the annual request log row.
Requests carry no media or network fields, only who is asking and why.

Examples:
  transferlog request --requestor "A. Smith" --purpose "quarterly audit" ./reports
  transferlog request --requestor jdoe --purpose "customer deliverable" build.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := service.Params{
				Kind:         domain.OperationRequest,
				Requestor:    requestor,
				Purpose:      purpose,
				ComputerName: computer,
				OutputDir:    outputDir,
			}

			if dateStr != "" {
				d, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateStr)
				}
				params.TransferDate = d
			}
			if cmd.Flags().Changed("checksum") {
				v, _ := cmd.Flags().GetBool("checksum")
				params.Checksum = &v
			}
			if cmd.Flags().Changed("inspect-archives") {
				v, _ := cmd.Flags().GetBool("inspect-archives")
				params.InspectArchives = &v
			}

			return runOperation(params, args, showProgress, assumeYes)
		},
	}

	cmd.Flags().StringVar(&requestor, "requestor", "", "Requesting person (required)")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Purpose of the requested transfer (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "Request date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured request output folder")
	cmd.Flags().StringVar(&computer, "computer", "", "Override the recorded computer name")
	cmd.Flags().Bool("checksum", true, "Compute SHA-256 hashes")
	cmd.Flags().Bool("inspect-archives", true, "List archive contents")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show per-file progress")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the large-inventory confirmation prompt")

	cmd.MarkFlagRequired("requestor")
	cmd.MarkFlagRequired("purpose")

	return cmd
}
