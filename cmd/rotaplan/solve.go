package main

import (
	"context"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rotaplan/rotaplan/pkg/lib/signals"
	"github.com/rotaplan/rotaplan/pkg/metrics"
	"github.com/rotaplan/rotaplan/pkg/sat"
	"github.com/rotaplan/rotaplan/pkg/sat/maxsat"
	"github.com/rotaplan/rotaplan/pkg/schedule"
)

const defaultTimeLimit = 30 * time.Second

// newSolveCmd returns a command that compiles a dataset and searches
// for a minimum-penalty schedule.
func newSolveCmd() *cobra.Command {
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a scheduling dataset",
		Long: `The rotaplan solve command compiles every rule of a dataset and
        minimizes the total penalty of the soft rules. Each improving
        schedule is logged as it is found; the best one is printed when
        the search proves it optimal or the time limit is reached.

        $ rotaplan solve --dataset residency.yaml --time-limit 1m
        `,
		RunE: solveFunc,
	}

	solveCmd.Flags().StringP("dataset", "d", "", "The dataset file to schedule.")
	solveCmd.Flags().Duration("time-limit", defaultTimeLimit, "Stop searching after this long and keep the best schedule found, 0 for no limit.")
	solveCmd.Flags().StringP("backend", "b", "gini", "Solver backend. One of: [gini, maxsat]")
	solveCmd.Flags().Int("parallelism", runtime.NumCPU(), "Number of residents compiled concurrently.")
	solveCmd.Flags().String("csv", "", "Also write the schedule as (resident, rotation, week) rows to this file.")
	solveCmd.Flags().Bool("trace", false, "Log every step of the objective search at debug level.")
	solveCmd.Flags().Bool("dump-metrics", false, "Print the collected metrics in Prometheus text format on exit.")

	return solveCmd
}

func backendFor(name string, logger log.FieldLogger) (sat.Backend, error) {
	switch name {
	case "gini":
		return sat.Gini{}, nil
	case "maxsat":
		return maxsat.Backend{Logger: logger}, nil
	}
	return nil, errors.Errorf("%s is not a supported backend", name)
}

func solveFunc(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cmd, s)
	backend, err := backendFor(s.Backend, logger)
	if err != nil {
		return err
	}

	ctx, stop := signals.Context(cmd.Context())
	defer stop()

	d, err := schedule.Load(s.Dataset)
	if err != nil {
		return err
	}
	m := sat.NewModel()
	plan, err := schedule.Build(ctx, m, d, schedule.Options{Parallelism: s.Parallelism, Logger: logger})
	if err != nil {
		return err
	}

	options := []sat.Option{
		sat.WithModel(m),
		sat.WithObjective(plan.Objective),
		sat.WithBackend(backend),
		sat.WithLogger(logger),
		sat.WithSolutionCallback(func(sol *sat.Solution) {
			metrics.EmitSolution()
			logger.WithField("cost", sol.Cost).Info("found schedule")
		}),
	}
	if s.Trace {
		w := logger.WriterLevel(log.DebugLevel)
		defer w.Close()
		options = append(options, sat.WithTracer(sat.LoggingTracer{Writer: w}))
	}
	solver, err := sat.New(options...)
	if err != nil {
		return err
	}
	instrumented := metrics.NewInstrumentedSolver(solver, metrics.RegisterSolveSuccess, metrics.RegisterSolveFailure)

	if s.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TimeLimit)
		defer cancel()
	}
	sol, err := instrumented.Solve(ctx)
	if s.DumpMetrics {
		defer func() {
			if err := metrics.Write(cmd.ErrOrStderr(), prometheus.DefaultGatherer); err != nil {
				logger.WithError(err).Warn("could not dump metrics")
			}
		}()
	}
	if errors.Is(err, sat.ErrIncomplete) {
		return errors.Wrapf(err, "no schedule within %s", s.TimeLimit)
	}
	if err != nil {
		return err
	}

	snap := plan.Snapshot(sol)
	if err := snap.Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	if s.CSV != "" {
		return writeFile(s.CSV, snap.WriteCSV)
	}
	return nil
}
