package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mucollege/dispatchtrack/config"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/reconcile"
	"github.com/mucollege/dispatchtrack/core/view"
	"github.com/mucollege/dispatchtrack/infra/logger"
	"github.com/mucollege/dispatchtrack/infra/refstore"
	"github.com/mucollege/dispatchtrack/pkg/export"
)

var (
	viewDate    string
	viewRoute   string
	viewCollege string
	viewCSV     bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the reconciled dispatch view",
	RunE:  runView,
}

func init() {
	viewCmd.Flags().StringVar(&viewDate, "date", "", "filter by exam date (YYYY-MM-DD)")
	viewCmd.Flags().StringVar(&viewRoute, "route", "", "filter by route code")
	viewCmd.Flags().StringVar(&viewCollege, "college", "", "filter by college code")
	viewCmd.Flags().BoolVar(&viewCSV, "csv", false, "output CSV instead of a table")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := refstore.New(cfg.Store, logger.New("refstore"))
	engine := view.NewEngine(reconcile.NewFetcher(client, client, nil), nil, nil)

	var f view.Filter
	if viewDate != "" {
		d, err := model.ParseDate(viewDate)
		if err != nil {
			return err
		}
		f.ExamDate = &d
	}
	f.RouteCode = viewRoute
	f.CollegeCode = viewCollege

	snap, err := engine.Recompute(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("no data available: %w", err)
	}
	if len(snap.Filtered) == 0 {
		fmt.Fprintln(os.Stderr, "no data found for the selected filters")
		return nil
	}
	if viewCSV {
		return export.WriteCSV(os.Stdout, snap.Filtered)
	}
	return printTable(snap.Filtered)
}

func printTable(rows []model.JoinedRow) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLEGE\tNAME\tROUTE\tEXAM DATE\tSTATUS\tPICKED UP BY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CollegeCode, r.CollegeName, r.RouteCode, r.ExamDate, r.Status, r.DispatchRecord.Recipient)
	}
	return tw.Flush()
}
