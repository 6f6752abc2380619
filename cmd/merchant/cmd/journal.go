package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/peter-kozarec/merchant/pkg/journal"
	"github.com/peter-kozarec/merchant/pkg/utility"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the simulation journal",
	Long: `Query runs recorded in a SQLite journal by "merchant run --journal".

Subcommands:
  runs        - List every recorded run
  trades      - List the trades of a run
  positions   - List the closed positions of a run
  valuations  - List the portfolio valuations of a run

Examples:
  merchant journal runs --db merchant.sqlite
  merchant journal trades 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List every recorded run",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalPositionsCmd = &cobra.Command{
	Use:   "positions <run-id>",
	Short: "List the closed positions of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalPositions,
}

var journalValuationsCmd = &cobra.Command{
	Use:   "valuations <run-id>",
	Short: "List the portfolio valuations of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalValuations,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalPositionsCmd)
	journalCmd.AddCommand(journalValuationsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./merchant.sqlite", "path to SQLite journal DB")
}

func openJournal(cmd *cobra.Command) (*journal.SQLite, error) {
	if _, err := os.Stat(journalDBPath); err != nil {
		return nil, fmt.Errorf("journal %s: %w", journalDBPath, err)
	}
	j, err := journal.Open(cmd.Context(), journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, _ []string) error {
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	runs, err := j.Runs(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	return printRuns(cmd.OutOrStdout(), runs)
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	runID, err := utility.ParseExecutionID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	trades, err := j.ListTradesByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	return printTrades(cmd.OutOrStdout(), trades)
}

func runJournalPositions(cmd *cobra.Command, args []string) error {
	runID, err := utility.ParseExecutionID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	positions, err := j.ListPositionsByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("list positions: %w", err)
	}
	return printPositions(cmd.OutOrStdout(), positions)
}

func runJournalValuations(cmd *cobra.Command, args []string) error {
	runID, err := utility.ParseExecutionID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}
	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	valuations, err := j.ListValuationsByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("list valuations: %w", err)
	}
	return printValuations(cmd.OutOrStdout(), valuations)
}

func printRuns(out io.Writer, runs []journal.Run) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN ID\tNAME\tSEED\tQUOTE\tFINGERPRINT\tSTARTED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", r.ID, r.Name, r.Seed, r.Quote, r.Fingerprint,
			r.StartedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func printTrades(out io.Writer, trades []journal.TradeRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EPISODE\tTID\tTIME\tBOUGHT\tSOLD\tFEES")
	for _, t := range trades {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s %s\t%s %s\t%s %s\n", t.Episode, t.TraceID, t.TimeStamp.Format(time.RFC3339),
			t.BoughtQty, t.Bought, t.SoldQty, t.Sold, t.FeesQty, t.Fees)
	}
	return w.Flush()
}

func printPositions(out io.Writer, positions []journal.PositionRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EPISODE\tINSTRUMENT\tAMOUNT\tOPEN\tCLOSE\tOPEN RATE\tCLOSE RATE\tPNL")
	for _, p := range positions {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", p.Episode, p.Instrument, p.Amount,
			p.OpenedAt.Format(time.RFC3339), p.ClosedAt.Format(time.RFC3339), p.OpenRate, p.CloseRate, p.RealizedPL)
	}
	return w.Flush()
}

func printValuations(out io.Writer, valuations []journal.ValuationRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EPISODE\tTIME\tVALUE")
	for _, v := range valuations {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s %s\n", v.Episode, v.TimeStamp.Format(time.RFC3339), v.Value, v.Instrument)
	}
	return w.Flush()
}
