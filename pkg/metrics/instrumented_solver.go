package metrics

import (
	"context"
	"time"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

type InstrumentedSolver struct {
	solver                sat.Solver
	successMetricsEmitter func(time.Duration)
	failureMetricsEmitter func(time.Duration)
}

var _ sat.Solver = &InstrumentedSolver{}

func NewInstrumentedSolver(solver sat.Solver, successMetricsEmitter, failureMetricsEmitter func(time.Duration)) *InstrumentedSolver {
	return &InstrumentedSolver{
		solver:                solver,
		successMetricsEmitter: successMetricsEmitter,
		failureMetricsEmitter: failureMetricsEmitter,
	}
}

func (is *InstrumentedSolver) Solve(ctx context.Context) (*sat.Solution, error) {
	start := time.Now()
	sol, err := is.solver.Solve(ctx)
	if err != nil {
		is.failureMetricsEmitter(time.Since(start))
	} else {
		is.successMetricsEmitter(time.Since(start))
	}
	return sol, err
}
