package constraints

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/rotaplan/rotaplan/pkg/metrics"
	"github.com/rotaplan/rotaplan/pkg/sat"
)

// Model is the part of a constraint model the compilers register
// into. *sat.Model satisfies it.
type Model interface {
	NewBool(name string) z.Lit
	AddClause(name string, lits ...z.Lit)
	NewIntVar(name string, lo, hi int) *sat.IntVar
	AddSumEquality(name string, lits []z.Lit, x *sat.IntVar)
	AddWeightedSumEquality(name string, lits []z.Lit, weights []int, x *sat.IntVar)
	AddMaxEquality(name string, target *sat.IntVar, exprs ...sat.Affine)
}

var _ Model = (*sat.Model)(nil)

// Sequence bounds the length of every run of true variables in
// timeline. Runs shorter than spec.HardMin or longer than
// spec.HardMax are forbidden outright. Runs in [HardMin, SoftMin)
// and (SoftMax, HardMax] are allowed but each one found in a solution
// makes one of the returned penalty terms hold, priced by the
// distance to the soft band.
//
// Every variable and constraint created is named after label, which
// should identify the subject and category of the timeline.
func Sequence(m Model, timeline Timeline, spec ThresholdSpec, label string) ([]sat.PenaltyTerm, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	n := len(timeline)
	if n == 0 {
		return nil, nil
	}

	var clauses int
	var terms []sat.PenaltyTerm

	for length := 1; length < spec.HardMin && length <= n; length++ {
		for start := 0; start+length <= n; start++ {
			m.AddClause(fmt.Sprintf("%s: short_span(start=%d, length=%d)", label, start, length), Span(timeline, start, length)...)
			clauses++
		}
	}

	if spec.MinCost > 0 {
		for length := max(1, spec.HardMin); length < spec.SoftMin && length <= n; length++ {
			for start := 0; start+length <= n; start++ {
				name := fmt.Sprintf("%s: under_span(start=%d, length=%d)", label, start, length)
				v := m.NewBool(name)
				m.AddClause(name, append(Span(timeline, start, length), v)...)
				terms = append(terms, sat.BoolPenalty(v, spec.MinCost*(spec.SoftMin-length)))
				clauses++
			}
		}
	}

	if spec.MaxCost > 0 && spec.SoftMax < n {
		for length := spec.SoftMax + 1; length <= min(spec.HardMax, n); length++ {
			for start := 0; start+length <= n; start++ {
				name := fmt.Sprintf("%s: over_span(start=%d, length=%d)", label, start, length)
				v := m.NewBool(name)
				m.AddClause(name, append(Span(timeline, start, length), v)...)
				terms = append(terms, sat.BoolPenalty(v, spec.MaxCost*(length-spec.SoftMax)))
				clauses++
			}
		}
	}

	clauses += forbidLongRuns(m, timeline, spec.HardMax, label)

	metrics.EmitClauses(metrics.SequenceCompiler, clauses)
	metrics.EmitPenaltyTerms(metrics.SequenceCompiler, len(terms))
	return terms, nil
}

// forbidLongRuns forbids every window of limit+1 consecutive true
// variables and returns the number of clauses added.
func forbidLongRuns(m Model, timeline Timeline, limit int, label string) int {
	if limit >= len(timeline) {
		return 0
	}
	length := limit + 1
	var added int
	for start := 0; start+length <= len(timeline); start++ {
		m.AddClause(fmt.Sprintf("%s: long_span(start=%d, length=%d)", label, start, length), window(timeline, start, length)...)
		added++
	}
	return added
}
