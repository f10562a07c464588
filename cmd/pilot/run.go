package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jordanella.com/desktop-pilot/internal/apperr"
	"jordanella.com/desktop-pilot/internal/events"
	"jordanella.com/desktop-pilot/internal/journal"
	"jordanella.com/desktop-pilot/internal/logging"
)

var (
	runMatcher string
	runSeed    int64

	runCmd = &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script until it finishes or Ctrl+C stops it",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
)

func init() {
	runCmd.Flags().StringVar(&runMatcher, "matcher", "surface", "template matcher: surface or opencv")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "seed for motion and click jitter (0 picks one)")
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	s, err := a.scripts.Get(args[0])
	if err != nil {
		return err
	}

	env, cleanup, err := a.newEnv(runMatcher, runSeed)
	if err != nil {
		return err
	}
	defer cleanup()

	bus := events.NewEventBus(64)
	bus.OnPanic = func(e events.Event, recovered interface{}) {
		a.logger.ErrorWithContext("event handler panicked", fmt.Errorf("%v", recovered), map[string]interface{}{
			"event_type": string(e.Type),
		})
	}
	defer bus.Stop()

	eventLog, err := logging.NewEventLogger(bus, a.logger, a.config.Host.EventLogDir)
	if err != nil {
		return err
	}
	defer eventLog.Close()

	j := a.openJournal()
	runID := uuid.NewString()
	if j != nil {
		defer j.Close()
		if id, err := j.Start(s.Name()); err != nil {
			a.logger.Error("failed to journal run start", err)
		} else {
			runID = id
			j.Record(bus, runID)
		}
	}

	env.OnStep = func(index int, action string, elapsed time.Duration, stepErr error) {
		bus.Publish(events.NewStepFinishedEvent(events.StepFinished{
			RunID:   runID,
			Script:  s.Name(),
			Index:   index,
			Action:  action,
			Elapsed: elapsed,
			Err:     stepErr,
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := a.logger.Named("run")
	bus.Publish(events.NewRunStartedEvent(runID, s.Name()))
	started := time.Now()

	runErr := s.Run(ctx, env)

	elapsed := time.Since(started)
	bus.Publish(events.NewRunFinishedEvent(events.RunFinished{
		RunID:   runID,
		Script:  s.Name(),
		Elapsed: elapsed,
		Err:     runErr,
	}))
	// journal writes and event log lines land before the summary
	bus.Stop()

	fields := map[string]interface{}{
		"script":  s.Name(),
		"run":     runID,
		"elapsed": elapsed.Round(time.Millisecond).String(),
		"status":  string(journal.StatusOf(runErr)),
	}
	switch {
	case runErr == nil:
		logger.InfoWithContext("script completed", fields)
		fmt.Fprintln(cmd.OutOrStdout(), "done")
		return nil
	case apperr.IsCanceled(runErr):
		logger.InfoWithContext("script stopped", fields)
		fmt.Fprintln(cmd.OutOrStdout(), "stopped")
		return nil
	default:
		logger.ErrorWithContext("script failed", runErr, fields)
		return runErr
	}
}
