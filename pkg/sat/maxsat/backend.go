// Package maxsat provides a sat.Backend that delegates minimization
// to the gophersat weighted partial MaxSAT solver.
package maxsat

import (
	"context"
	"fmt"
	"io"

	"github.com/crillab/gophersat/maxsat"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
	unknown       = 0
)

// Backend hands the clauses of a problem to gophersat as hard
// clauses and every weighted objective literal as a soft clause
// forbidding it. gophersat gives no unsatisfiable core, so an
// infeasible problem is reported against every hard constraint.
//
// A gophersat search cannot be interrupted. When ctx is done first,
// Minimize returns sat.ErrIncomplete at once and the abandoned search
// keeps its goroutine and a CPU busy until gophersat returns.
type Backend struct {
	// Logger receives a debug entry for every abandoned search.
	Logger logrus.FieldLogger
}

var _ sat.Backend = Backend{}

type result struct {
	model maxsat.Model
	cost  int
}

// solve runs one blocking gophersat search.
var solve = func(constrs []maxsat.Constr) result {
	model, cost := maxsat.New(constrs...).Solve()
	return result{model: model, cost: cost}
}

func (b Backend) logger() logrus.FieldLogger {
	if b.Logger != nil {
		return b.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (b Backend) Minimize(ctx context.Context, p *sat.Problem, tracer sat.Tracer, improved func(sat.Assignment)) (sat.Assignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, sat.ErrIncomplete
	}

	clauses := p.Clauses()
	constrs := make([]maxsat.Constr, 0, len(clauses)+len(p.Objective())+1)
	for _, c := range clauses {
		lits := make([]maxsat.Lit, len(c))
		for i, m := range c {
			lits[i] = lit(m)
		}
		constrs = append(constrs, maxsat.HardClause(lits...))
	}
	for _, w := range p.Objective() {
		constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{lit(w.Lit.Not())}, w.Weight))
	}
	// The circuit's constant true literal, so the objective is never
	// empty.
	constrs = append(constrs, maxsat.WeightedClause([]maxsat.Lit{lit(p.Circuit().T)}, 1))

	done := make(chan result, 1)
	go func() {
		done <- solve(constrs)
	}()

	select {
	case <-ctx.Done():
		b.logger().WithField("constraints", len(constrs)).Debug("search abandoned, gophersat keeps running until it returns")
		tracer.Trace(position{bound: -1, outcome: unknown})
		return nil, false, sat.ErrIncomplete
	case r := <-done:
		if r.model == nil {
			conflicts := p.Conflicts(p.Roots())
			tracer.Trace(position{bound: -1, outcome: unsatisfiable, conflicts: conflicts})
			return nil, false, sat.NotSatisfiable(conflicts)
		}
		a := assignment(p, r.model)
		tracer.Trace(position{bound: r.cost, outcome: satisfiable})
		improved(a)
		return a, true, nil
	}
}

func name(v z.Var) string {
	return fmt.Sprintf("x%d", v)
}

func lit(m z.Lit) maxsat.Lit {
	if m.IsPos() {
		return maxsat.Var(name(m.Var()))
	}
	return maxsat.Not(name(m.Var()))
}

// assignment decodes a gophersat model. Variables absent from the
// model appear in no clause and read as false.
func assignment(p *sat.Problem, model maxsat.Model) sat.Assignment {
	a := make(sat.Assignment, p.MaxVar()+1)
	for v := z.Var(1); v <= p.MaxVar(); v++ {
		a[v] = model[name(v)]
	}
	return a
}

type position struct {
	bound     int
	outcome   int
	conflicts []sat.AppliedConstraint
}

func (x position) Bound() int {
	return x.bound
}

func (x position) Outcome() int {
	return x.outcome
}

func (x position) Conflicts() []sat.AppliedConstraint {
	return x.conflicts
}
