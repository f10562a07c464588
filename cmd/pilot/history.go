package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historySteps bool

	historyCmd = &cobra.Command{
		Use:   "history [script]",
		Short: "Show recent runs from the journal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historySteps, "steps", false, "include per-step timings")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	j := a.openJournal()
	if j == nil {
		return fmt.Errorf("journal is disabled")
	}
	defer j.Close()

	var script string
	if len(args) == 1 {
		script = args[0]
	}

	runs, err := j.Recent(script, historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSCRIPT\tSTATUS\tDURATION\tERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Script, run.Status, run.Duration().Round(time.Millisecond), run.ErrorMessage)

		if !historySteps {
			continue
		}
		steps, err := j.Steps(run.ID)
		if err != nil {
			return err
		}
		for _, step := range steps {
			fmt.Fprintf(w, "\t  %d. %s\t\t%s\t%s\n", step.Index, step.Action, step.Duration, step.ErrorMessage)
		}
	}
	return w.Flush()
}
