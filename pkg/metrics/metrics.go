package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	CompilerLabel = "compiler"
	Outcome       = "outcome"
	Succeeded     = "succeeded"
	Failed        = "failed"

	SequenceCompiler    = "sequence"
	SumCompiler         = "sum"
	WeightedSumCompiler = "weighted-sum"
	TwoOrFourCompiler   = "two-or-four"
)

// To add new metrics:
// 1. Register new metrics in Register() below.
// 2. Add an Emit/Register helper so callers never touch the vectors.
var (
	clausesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotaplan_clauses_total",
			Help: "Monotonic count of hard clauses emitted by the rule compilers",
		},
		[]string{CompilerLabel},
	)

	penaltyTermsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotaplan_penalty_terms_total",
			Help: "Monotonic count of penalty terms returned by the rule compilers",
		},
		[]string{CompilerLabel},
	)

	solutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotaplan_solutions_total",
			Help: "Monotonic count of improving solutions reported by the solver",
		},
	)

	solveSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "rotaplan_solve_duration_seconds",
			Help:       "The duration of a solve attempt",
			Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{Outcome},
	)
)

func Register() {
	prometheus.MustRegister(clausesTotal)
	prometheus.MustRegister(penaltyTermsTotal)
	prometheus.MustRegister(solutionsTotal)
	prometheus.MustRegister(solveSummary)
}

func EmitClauses(compiler string, n int) {
	clausesTotal.WithLabelValues(compiler).Add(float64(n))
}

func EmitPenaltyTerms(compiler string, n int) {
	penaltyTermsTotal.WithLabelValues(compiler).Add(float64(n))
}

func EmitSolution() {
	solutionsTotal.Inc()
}

func RegisterSolveSuccess(duration time.Duration) {
	solveSummary.WithLabelValues(Succeeded).Observe(duration.Seconds())
}

func RegisterSolveFailure(duration time.Duration) {
	solveSummary.WithLabelValues(Failed).Observe(duration.Seconds())
}

// Write dumps every metric family known to g in the Prometheus text
// exposition format.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
