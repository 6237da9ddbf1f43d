package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtatools/transferlog/internal/domain"
	"github.com/dtatools/transferlog/internal/logger"
	"github.com/dtatools/transferlog/internal/progress"
	"github.com/dtatools/transferlog/internal/service"
	"github.com/dtatools/transferlog/internal/state"
)

func buildTransferCommand() *cobra.Command {
	var (
		mediaType    string
		mediaID      string
		transferType string
		source       string
		destination  string
		dateStr      string
		outputDir    string
		computer     string
		showProgress bool
		assumeYes    bool
	)

	cmd := &cobra.Command{
		Use:   "transfer [files and folders...]",
		Short: "Log a media transfer",
		Long: `Logs one media transfer: walks the given files and folders, computes
SHA-256 hashes, lists archive contents, and writes the detail CSV plus
the annual summary row.

The transfer direction is derived from the configured local network:
Outgoing when the source matches, Incoming when the destination does.

Examples:
  transferlog transfer --media-id USB-0042 --transfer-type "Low to High" \
    --source Intranet --destination Customer ./outbox
  transferlog transfer --media-id DVD-17 --media-type DVD \
    --transfer-type "High to Low" --source Customer --destination Intranet \
    report.pdf data/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := service.Params{
				Kind:         domain.OperationTransfer,
				MediaType:    mediaType,
				MediaID:      mediaID,
				TransferType: transferType,
				Source:       source,
				Destination:  destination,
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

	cmd.Flags().StringVar(&mediaType, "media-type", "", "Media type (Flash, DVD, ...)")
	cmd.Flags().StringVar(&mediaID, "media-id", "", "Media identifier (required)")
	cmd.Flags().StringVar(&transferType, "transfer-type", "", "Transfer type full name (required)")
	cmd.Flags().StringVar(&source, "source", "", "Source network (required)")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination network (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "Transfer date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured output folder")
	cmd.Flags().StringVar(&computer, "computer", "", "Override the recorded computer name")
	cmd.Flags().Bool("checksum", true, "Compute SHA-256 hashes")
	cmd.Flags().Bool("inspect-archives", true, "List archive contents")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show per-file progress")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the large-inventory confirmation prompt")

	cmd.MarkFlagRequired("media-id")
	cmd.MarkFlagRequired("transfer-type")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("destination")

	return cmd
}

// runOperation drives one transfer or request operation end to end and
// prints the result summary
func runOperation(params service.Params, inputs []string, showProgress, assumeYes bool) error {
	svc, err := service.New(cfg)
	if err != nil {
		return err
	}

	if dir := resolveHistoryDir(); dir != "" {
		manager, err := state.NewManager(dir)
		if err != nil {
			logger.Get().Warn("operation history unavailable", "dir", dir, "error", err)
		} else {
			defer manager.Close()
			svc.SetHistory(manager)
		}
	}

	if showProgress {
		svc.SetProgressReporter(progress.NewCallbackReporter(printProgress))
	}
	if cfg.Scan.MaxFilesBeforeConfirm > 0 && !assumeYes {
		svc.SetConfirm(confirmLargeInventory)
	}

	tc, err := svc.BuildContext(params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := svc.Run(ctx, tc, inputs)
	if err != nil {
		return err
	}

	fmt.Printf("Detail file:  %s\n", res.DetailPath)
	fmt.Printf("Summary file: %s\n", res.SummaryPath)
	fmt.Printf("Files: %d  Total size: %s\n", res.FileCount, progress.FormatBytes(res.TotalBytes))

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if res.EntryErrors > 0 {
		fmt.Fprintf(os.Stderr, "%d entries recorded with errors, see the detail file\n", res.EntryErrors)
	}

	return nil
}

func printProgress(u progress.Update) {
	switch u.Type {
	case progress.UpdateTotal:
		fmt.Fprintf(os.Stderr, "%d files, %s total\n", u.FilesTotal, progress.FormatBytes(u.BytesTotal))
	case progress.UpdateStart:
		fmt.Fprintf(os.Stderr, "%s %s (%s)\n", u.Stage, u.CurrentFile, progress.FormatBytes(u.CurrentSize))
	case progress.UpdateError:
		fmt.Fprintf(os.Stderr, "error on %s: %v\n", u.CurrentFile, u.Error)
	}
}

// confirmLargeInventory prompts before processing inventories above the
// configured threshold
func confirmLargeInventory(fileCount int) bool {
	fmt.Fprintf(os.Stderr, "Inventory contains %d files (threshold %d). Continue? [y/N] ",
		fileCount, cfg.Scan.MaxFilesBeforeConfirm)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
