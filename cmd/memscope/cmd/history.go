package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/memscope/internal/report"
	"github.com/memscope/internal/service"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List saved scan runs, or print one run",
	Long: `Without arguments, history lists the most recent runs recorded with
"scan --save". With a run ID it prints that run's report lines.

The history database must be enabled in the configuration (database.enabled).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, err := service.New(cfg, service.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	if len(args) == 1 {
		r, err := svc.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return report.WriteText(r, cmd.OutOrStdout())
	}

	runs, err := svc.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "RUN\tSTARTED\tSOURCE\tBASE\tSIZE\tTYPES\tSTRINGS\tDURATION\n")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%#x\t%d\t%d\t%d\t%v\n",
			run.RunID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Source,
			run.Base,
			run.Size,
			run.TypeCount,
			run.StringCount,
			time.Duration(run.DurationUs)*time.Microsecond,
		)
	}
	return w.Flush()
}
