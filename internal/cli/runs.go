package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/luhtaf/onlyonce/internal/report"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		path  string
		runID string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in a report, or the counts of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rootOpts.Config.Report.SQLitePath
			}
			return runRuns(cmd, path, runID)
		},
	}

	cmd.Flags().StringVar(&path, "report", "", "SQLite report file (default: report.sqlite_path)")
	cmd.Flags().StringVar(&runID, "run", "", "print the counts recorded for this run id")

	return cmd
}

func runRuns(cmd *cobra.Command, path, runID string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("report %s: %w", path, err)
	}
	rep, err := report.Open(path)
	if err != nil {
		return fmt.Errorf("open report %s: %w", path, err)
	}
	defer rep.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if runID != "" {
		entries, err := rep.Entries(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("run %q not found in %s", runID, path)
		}
		fmt.Fprintln(w, "SPACE\tKEY\tCOUNT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\n", e.Space, e.Key, e.Count)
		}
		return nil
	}

	runs, err := rep.Runs(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tENTRIES\tTOTAL\tRECORDED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.ID, r.Entries, r.Total, r.RecordedAt.Format(time.RFC3339))
	}
	return nil
}
