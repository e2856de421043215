package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stylebook/tiermill/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "number of runs to list")
	cmd.Flags().Int64("run", 0, "show the individual jobs of one run")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return fmt.Errorf("no journal configured; pass --journal or set journal_path")
	}

	journal, err := store.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := cmd.Context()

	if runID, _ := cmd.Flags().GetInt64("run"); runID != 0 {
		return printJobs(ctx, journal, runID)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := journal.RunRepo.ListRecent(ctx, journal.DB, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tSTARTED\tOK\tOVER\tFAIL\tSKIP\tROOT")
	for _, r := range runs {
		started := time.Unix(r.StartedAt, 0).Format(time.RFC3339)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Mode, started, r.Succeeded, r.Oversized, r.Failed, r.Skipped, r.Root)
	}
	return tw.Flush()
}

func printJobs(ctx context.Context, journal *store.Journal, runID int64) error {
	jobs, err := journal.JobRepo.ListByRun(ctx, journal.DB, runID)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Printf("no jobs recorded for run %d\n", runID)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tOUTCOME\tATTEMPTS\tSIZE\tLIMIT\tSOURCE\tERROR")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			j.Tier, j.Outcome, j.Attempts, j.SizeBytes, j.LimitBytes, j.Source, j.Error)
	}
	return tw.Flush()
}
