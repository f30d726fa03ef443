package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"boardview/internal/cli"
	"boardview/internal/export"
	"boardview/internal/log"
)

var (
	exportSink string
	exportPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a point-in-time report of the board",
	Long: `Fetches the board once and writes the In Progress, Done, Backlog and
Events views to the configured sink.

Sinks:
  sqlite  appends the report to a SQLite database at EXPORT_PATH
  xlsx    writes a workbook next to EXPORT_PATH
  sheets  rewrites a tab of GOOGLE_SPREADSHEET_ID`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSink, "sink", "", "Export sink: sqlite, xlsx or sheets (default: EXPORT_SINK)")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output path for file sinks (default: EXPORT_PATH)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	if exportSink != "" {
		cfg.ExportSink = exportSink
	}
	if exportPath != "" {
		cfg.ExportPath = exportPath
	}
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := cli.NewBoardService(cfg, logger)
	if err != nil {
		return err
	}

	sink, err := export.OpenSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("Closing export sink failed", log.FieldError, err, log.FieldSink, cfg.ExportSink)
		}
	}()

	res, err := export.NewExporter(svc, sink, cfg.ExportSink, logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d cards as report %s to %s\n",
		res.Report.RowCount(), res.Report.ID, res.Ref)
	return nil
}
