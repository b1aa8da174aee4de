package sat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrIncomplete = errors.New("cancelled before a solution could be found")

// NotSatisfiable is an error composed of a minimal set of applied
// constraints that is sufficient to make a solution impossible.
type NotSatisfiable []AppliedConstraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, a := range e {
		s[i] = a.String()
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(s, ", "))
}

const (
	satisfiable   = 1
	unsatisfiable = -1
	unknown       = 0
)

// Solution is an assignment accepted by a solver together with its
// objective value. Optimal is false when the search was cut short
// before the cost could be proven minimal.
type Solution struct {
	Values  Assignment
	Cost    int
	Optimal bool
}

// Value returns the value of a literal in the solution.
func (s *Solution) Value(m z.Lit) bool {
	return s.Values.Value(m)
}

// IntValue returns the value of an integer variable in the solution.
func (s *Solution) IntValue(x *IntVar) int {
	return x.Value(s.Values)
}

type Solver interface {
	Solve(context.Context) (*Solution, error)
}

// Backend searches for a minimum-cost assignment of a Problem.
// Every improving assignment is passed to improved as soon as it is
// found. Minimize returns the best assignment and whether it is
// proven optimal; it returns NotSatisfiable when the hard
// constraints cannot be met and ErrIncomplete when it was cancelled
// before finding any assignment.
type Backend interface {
	Minimize(ctx context.Context, p *Problem, tracer Tracer, improved func(Assignment)) (Assignment, bool, error)
}

type solver struct {
	model      *Model
	objective  []PenaltyTerm
	backend    Backend
	tracer     Tracer
	onSolution func(*Solution)
	log        logrus.FieldLogger
}

// Solve minimizes the objective subject to every hard constraint of
// the model. If no solution is possible, or if the provided Context
// times out or is cancelled before one is found, an error is
// returned.
func (s *solver) Solve(ctx context.Context) (*Solution, error) {
	if err := s.model.Error(); err != nil {
		return nil, err
	}

	p := s.model.snapshot()
	var err error
	if p.offset, p.objective, err = linearize(s.objective); err != nil {
		return nil, errors.Wrap(err, "invalid objective")
	}

	log := s.log.WithField("run", uuid.New().String())
	log.WithFields(logrus.Fields{
		"constraints": len(p.roots),
		"penalties":   len(p.objective),
	}).Debug("solving")

	start := time.Now()
	improved := func(a Assignment) {
		sol := &Solution{Values: a, Cost: p.Cost(a)}
		log.WithFields(logrus.Fields{
			"cost":    sol.Cost,
			"elapsed": time.Since(start),
		}).Debug("improving solution")
		if s.onSolution != nil {
			s.onSolution(sol)
		}
	}

	a, optimal, err := s.backend.Minimize(ctx, p, s.tracer, improved)
	if err != nil {
		log.WithError(err).Debug("no solution")
		return nil, err
	}
	sol := &Solution{Values: a, Cost: p.Cost(a), Optimal: optimal}
	log.WithFields(logrus.Fields{
		"cost":    sol.Cost,
		"optimal": sol.Optimal,
		"elapsed": time.Since(start),
	}).Debug("solved")
	return sol, nil
}

func New(options ...Option) (Solver, error) {
	s := solver{}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type Option func(s *solver) error

func WithModel(m *Model) Option {
	return func(s *solver) error {
		s.model = m
		return nil
	}
}

// WithObjective sets the penalty terms to minimize. Terms from
// separate compiler calls are simply concatenated by the caller.
func WithObjective(terms []PenaltyTerm) Option {
	return func(s *solver) error {
		s.objective = terms
		return nil
	}
}

func WithTracer(t Tracer) Option {
	return func(s *solver) error {
		s.tracer = t
		return nil
	}
}

// WithSolutionCallback registers a function invoked with every
// improving solution, in the order they are found.
func WithSolutionCallback(fn func(*Solution)) Option {
	return func(s *solver) error {
		s.onSolution = fn
		return nil
	}
}

func WithBackend(b Backend) Option {
	return func(s *solver) error {
		s.backend = b
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *solver) error {
		s.log = log
		return nil
	}
}

var defaults = []Option{
	func(s *solver) error {
		if s.model == nil {
			s.model = NewModel()
		}
		return nil
	},
	func(s *solver) error {
		if s.tracer == nil {
			s.tracer = DefaultTracer{}
		}
		return nil
	},
	func(s *solver) error {
		if s.backend == nil {
			s.backend = Gini{}
		}
		return nil
	},
	func(s *solver) error {
		if s.log == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			s.log = l
		}
		return nil
	},
}

const defaultPollInterval = 20 * time.Millisecond

// Gini is the default Backend. Hard constraints are assumed through
// their roots, so an unsatisfiable model is explained by the failed
// assumptions. The objective is encoded with a sorting network over
// the weighted literals and minimized by repeatedly asking for a
// solution strictly cheaper than the best one so far.
type Gini struct {
	// PollInterval is how often a running solve checks for
	// cancellation.
	PollInterval time.Duration
}

func (b Gini) Minimize(ctx context.Context, p *Problem, tracer Tracer, improved func(Assignment)) (Assignment, bool, error) {
	var cs *logic.CardSort
	if units := objectiveUnits(p.objective); len(units) > 0 {
		cs = p.c.CardSort(units)
	}

	g := gini.New()
	p.ToCnf(g)

	outcome := b.solve(ctx, g, p.roots)
	tracer.Trace(position{bound: -1, outcome: outcome, p: p, g: g})
	switch outcome {
	case satisfiable:
	case unsatisfiable:
		return nil, false, NotSatisfiable(p.Conflicts(g.Why(nil)))
	default:
		return nil, false, ErrIncomplete
	}

	best := snapshot(p, g)
	improved(best)
	if cs == nil {
		return best, true, nil
	}
	for cost := p.Cost(best) - p.offset; cost > 0; cost = p.Cost(best) - p.offset {
		outcome := b.solve(ctx, g, p.roots, cs.Leq(cost-1))
		tracer.Trace(position{bound: cost - 1, outcome: outcome, p: p, g: g})
		switch outcome {
		case satisfiable:
			best = snapshot(p, g)
			improved(best)
		case unsatisfiable:
			return best, true, nil
		default:
			return best, false, nil
		}
	}
	return best, true, nil
}

// solve assumes every root plus extra and runs the solver until it
// answers or ctx is done.
func (b Gini) solve(ctx context.Context, g *gini.Gini, roots []z.Lit, extra ...z.Lit) int {
	g.Assume(roots...)
	g.Assume(extra...)
	if ctx.Done() == nil {
		return g.Solve()
	}
	if ctx.Err() != nil {
		return unknown
	}

	interval := b.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s := g.GoSolve()
	for {
		if outcome, ok := s.Test(); ok {
			return outcome
		}
		select {
		case <-ctx.Done():
			return s.Stop()
		case <-ticker.C:
		}
	}
}

// objectiveUnits expands weighted literals into unit-weight copies
// so that a single cardinality network counts the cost.
func objectiveUnits(objective []WeightedLit) []z.Lit {
	var units []z.Lit
	for _, w := range objective {
		for i := 0; i < w.Weight; i++ {
			units = append(units, w.Lit)
		}
	}
	return units
}

func snapshot(p *Problem, g *gini.Gini) Assignment {
	max := p.MaxVar()
	a := make(Assignment, max+1)
	if known := g.MaxVar(); known < max {
		max = known
	}
	for v := z.Var(1); v <= max; v++ {
		a[v] = g.Value(v.Pos())
	}
	return a
}

type position struct {
	bound   int
	outcome int
	p       *Problem
	g       *gini.Gini
}

func (x position) Bound() int {
	return x.bound
}

func (x position) Outcome() int {
	return x.outcome
}

func (x position) Conflicts() []AppliedConstraint {
	if x.outcome != unsatisfiable {
		return nil
	}
	return x.p.Conflicts(x.g.Why(nil))
}
