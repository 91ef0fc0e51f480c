package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mucollege/dispatchtrack/config"
	"github.com/mucollege/dispatchtrack/core/ingest"
	"github.com/mucollege/dispatchtrack/infra/logger"
	"github.com/mucollege/dispatchtrack/infra/refstore"
	"github.com/mucollege/dispatchtrack/pkg/upload"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Create dispatch records from a batch CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	rows, err := upload.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	client := refstore.New(cfg.Store, logger.New("refstore"))
	pipeline := ingest.New(client, client, nil, nil, logger.New("ingest"))

	report := pipeline.Run(cmd.Context(), rows)
	for _, res := range report.Results {
		switch res.Outcome {
		case ingest.OutcomeCreated:
			fmt.Printf("created %s (%s, %s)\n", res.RecordID, res.Row.CollegeCode, res.Row.ExamDate)
		case ingest.OutcomeUnresolved:
			fmt.Printf("skipped %s: %s\n", res.Row.CollegeCode, res.Err)
		case ingest.OutcomeFailed:
			fmt.Printf("failed  %s: %s\n", res.Row.CollegeCode, res.Err)
		}
	}
	fmt.Printf("batch %s: %d created, %d skipped, %d failed\n",
		report.BatchID, report.Created(), report.Skipped(), report.Failed())
	if report.Failed() > 0 {
		return fmt.Errorf("%d rows failed", report.Failed())
	}
	return nil
}
