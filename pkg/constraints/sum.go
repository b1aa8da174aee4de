package constraints

import (
	"github.com/pkg/errors"

	"github.com/rotaplan/rotaplan/pkg/metrics"
	"github.com/rotaplan/rotaplan/pkg/sat"
)

// Sum bounds the number of true variables in timeline. The count is
// an integer restricted to [spec.HardMin, spec.HardMax]; a shortfall
// below SoftMin and an excess above SoftMax are returned as integer
// penalty terms costing MinCost and MaxCost per unit.
//
// An empty timeline has a count of zero and returns no penalty terms.
func Sum(m Model, timeline Timeline, spec ThresholdSpec, label string) ([]sat.PenaltyTerm, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	count := accumulator(m, label+": count", spec, len(timeline))
	m.AddSumEquality(label+": count", timeline, count)
	var terms []sat.PenaltyTerm
	if len(timeline) > 0 && spec.HardMin <= len(timeline) {
		terms = deviation(m, count, spec, label)
	}

	metrics.EmitClauses(metrics.SumCompiler, 1)
	metrics.EmitPenaltyTerms(metrics.SumCompiler, len(terms))
	return terms, nil
}

// WeightedSum is Sum over the weighted count of timeline, where a
// true timeline[i] contributes weights[i] units. Weights must be
// non-negative and there must be one per timeline entry.
func WeightedSum(m Model, timeline Timeline, weights []int, spec ThresholdSpec, label string) ([]sat.PenaltyTerm, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(weights) != len(timeline) {
		return nil, errors.Errorf("%s: %d weights for a timeline of length %d", label, len(weights), len(timeline))
	}
	reach := 0
	for i, w := range weights {
		if w < 0 {
			return nil, errors.Errorf("%s: weight %d at index %d is negative", label, w, i)
		}
		reach += w
	}
	total := accumulator(m, label+": total", spec, reach)
	m.AddWeightedSumEquality(label+": total", timeline, weights, total)
	var terms []sat.PenaltyTerm
	if len(timeline) > 0 && spec.HardMin <= reach {
		terms = deviation(m, total, spec, label)
	}

	metrics.EmitClauses(metrics.WeightedSumCompiler, 1)
	metrics.EmitPenaltyTerms(metrics.WeightedSumCompiler, len(terms))
	return terms, nil
}

// accumulator returns the integer a sum of at most reach is equated
// to. Its domain is the hard band cut down to [0, reach]. When
// spec.HardMin exceeds reach the domain is the single value reach+1,
// which the equality can never meet.
func accumulator(m Model, name string, spec ThresholdSpec, reach int) *sat.IntVar {
	lo := min(spec.HardMin, reach+1)
	hi := max(lo, min(spec.HardMax, reach))
	return m.NewIntVar(name, lo, hi)
}

// deviation prices the distance of x from the soft band of spec. The
// auxiliaries only span the values x can take.
func deviation(m Model, x *sat.IntVar, spec ThresholdSpec, label string) []sat.PenaltyTerm {
	lo, hi := x.Bounds()
	var terms []sat.PenaltyTerm
	if spec.MinCost > 0 && spec.SoftMin > lo {
		short := m.NewIntVar(label+": under_sum", max(0, spec.SoftMin-hi), spec.SoftMin-lo)
		m.AddMaxEquality(label+": under_sum", short, sat.Affine{X: x, Coeff: -1, Offset: spec.SoftMin})
		terms = append(terms, sat.IntPenalty(short, spec.MinCost))
	}
	if spec.MaxCost > 0 && hi > spec.SoftMax {
		over := m.NewIntVar(label+": over_sum", max(0, lo-spec.SoftMax), hi-spec.SoftMax)
		m.AddMaxEquality(label+": over_sum", over, sat.Affine{X: x, Coeff: 1, Offset: -spec.SoftMax})
		terms = append(terms, sat.IntPenalty(over, spec.MaxCost))
	}
	return terms
}
