package constraints

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

func newTimeline(m *sat.Model, prefix string, n int) Timeline {
	tl := make(Timeline, n)
	for i := range tl {
		tl[i] = m.NewBool(fmt.Sprintf("%s[%d]", prefix, i))
	}
	return tl
}

// patterns returns every assignment of n booleans as strings of 0/1.
func patterns(n int) []string {
	out := make([]string, 0, 1<<n)
	for bits := 0; bits < 1<<n; bits++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = '0'
			if bits&(1<<i) != 0 {
				b[i] = '1'
			}
		}
		out = append(out, string(b))
	}
	return out
}

// runs returns the lengths of the maximal runs of '1' in pattern.
func runs(pattern string) []int {
	var out []int
	n := 0
	for _, c := range pattern + "0" {
		if c == '1' {
			n++
			continue
		}
		if n > 0 {
			out = append(out, n)
		}
		n = 0
	}
	return out
}

type compileFunc func(m *sat.Model, tl Timeline) ([]sat.PenaltyTerm, error)

// evaluate compiles a rule over a fresh timeline, fixes the timeline
// to pattern and returns whether the result is feasible and, if so,
// the minimum total penalty.
func evaluate(t *testing.T, compile compileFunc, pattern string) (bool, int) {
	t.Helper()
	m := sat.NewModel()
	tl := newTimeline(m, "t", len(pattern))
	terms, err := compile(m, tl)
	require.NoError(t, err)
	for i, c := range pattern {
		if c == '1' {
			m.AddClause(fmt.Sprintf("fix t[%d]", i), tl[i])
		} else {
			m.AddClause(fmt.Sprintf("fix t[%d]", i), tl[i].Not())
		}
	}

	s, err := sat.New(sat.WithModel(m), sat.WithObjective(terms))
	require.NoError(t, err)
	sol, err := s.Solve(context.Background())
	var ns sat.NotSatisfiable
	if errors.As(err, &ns) {
		return false, 0
	}
	require.NoError(t, err)
	require.True(t, sol.Optimal)
	return true, sol.Cost
}

func sequenceOf(spec ThresholdSpec) compileFunc {
	return func(m *sat.Model, tl Timeline) ([]sat.PenaltyTerm, error) {
		return Sequence(m, tl, spec, "sequence")
	}
}

func TestSequenceVacationBlock(t *testing.T) {
	spec := FromTuple([6]int{2, 2, 0, 4, 4, 0})

	m := sat.NewModel()
	terms, err := Sequence(m, newTimeline(m, "t", 6), spec, "vacation")
	require.NoError(t, err)
	assert.Empty(t, terms)

	for _, tt := range []struct {
		Pattern  string
		Feasible bool
	}{
		{"000000", true},
		{"100000", false},
		{"010000", false},
		{"000001", false},
		{"110000", true},
		{"011100", true},
		{"111100", true},
		{"110110", true},
		{"011110", true},
		{"111110", false},
		{"011111", false},
		{"111111", false},
		{"110100", false},
	} {
		t.Run(tt.Pattern, func(t *testing.T) {
			ok, cost := evaluate(t, sequenceOf(spec), tt.Pattern)
			assert.Equal(t, tt.Feasible, ok)
			assert.Zero(t, cost)
		})
	}
}

func TestSequenceIsolatedUnits(t *testing.T) {
	for _, pattern := range patterns(5) {
		adjacent := false
		for i := 1; i < len(pattern); i++ {
			if pattern[i] == '1' && pattern[i-1] == '1' {
				adjacent = true
			}
		}
		ok, _ := evaluate(t, sequenceOf(Exactly(1)), pattern)
		assert.Equal(t, !adjacent, ok, pattern)
	}
}

func TestSequenceAgainstRuns(t *testing.T) {
	for _, spec := range []ThresholdSpec{
		FromTuple([6]int{1, 3, 2, 3, 5, 3}),
		FromTuple([6]int{0, 2, 1, 2, 4, 1}),
		FromTuple([6]int{2, 2, 0, 2, 6, 5}),
		FromTuple([6]int{1, 4, 7, 4, 4, 0}),
		FromTuple([6]int{0, 0, 0, 6, 6, 0}),
	} {
		t.Run(spec.String(), func(t *testing.T) {
			for _, pattern := range patterns(6) {
				feasible, cost := true, 0
				for _, n := range runs(pattern) {
					if n < spec.HardMin || n > spec.HardMax {
						feasible = false
					}
					if n < spec.SoftMin {
						cost += spec.MinCost * (spec.SoftMin - n)
					}
					if n > spec.SoftMax {
						cost += spec.MaxCost * (n - spec.SoftMax)
					}
				}
				ok, got := evaluate(t, sequenceOf(spec), pattern)
				require.Equal(t, feasible, ok, pattern)
				if feasible {
					assert.Equal(t, cost, got, pattern)
				}
			}
		})
	}
}

func TestSequencePenaltyTerms(t *testing.T) {
	m := sat.NewModel()
	tl := newTimeline(m, "t", 4)
	terms, err := Sequence(m, tl, FromTuple([6]int{1, 2, 5, 2, 4, 3}), "r1/icu")
	require.NoError(t, err)

	// 4 under-length windows of length 1, then 2 of length 3 and 1 of
	// length 4 over the soft maximum.
	var coeffs []int
	for _, term := range terms {
		assert.Nil(t, term.Int)
		coeffs = append(coeffs, term.Coeff)
	}
	assert.Equal(t, []int{5, 5, 5, 5, 3, 3, 6}, coeffs)

	assert.Equal(t, "r1/icu: under_span(start=2, length=1)", m.Name(terms[2].Lit))
	assert.Equal(t, "r1/icu: over_span(start=0, length=4)", m.Name(terms[6].Lit))
	assert.NoError(t, m.Error())
}

func TestSequenceMonotonicInMaxCost(t *testing.T) {
	compile := func(maxCost int) (*sat.Model, []sat.PenaltyTerm) {
		m := sat.NewModel()
		terms, err := Sequence(m, newTimeline(m, "t", 7), ThresholdSpec{HardMin: 1, SoftMin: 1, SoftMax: 2, HardMax: 5, MaxCost: maxCost}, "seq")
		require.NoError(t, err)
		return m, terms
	}

	cheap, cheapTerms := compile(1)
	dear, dearTerms := compile(3)

	require.Len(t, dearTerms, len(cheapTerms))
	require.NotEmpty(t, cheapTerms)
	for i := range cheapTerms {
		assert.Greater(t, dearTerms[i].Coeff, cheapTerms[i].Coeff)
		assert.Equal(t, cheap.Name(cheapTerms[i].Lit), dear.Name(dearTerms[i].Lit))
	}
	if diff := cmp.Diff(cheap.Constraints(), dear.Constraints()); diff != "" {
		t.Errorf("hard constraints differ (-cheap +dear):\n%s", diff)
	}
}

func TestSequenceStructureIsRepeatable(t *testing.T) {
	spec := FromTuple([6]int{1, 2, 4, 3, 5, 2})
	build := func() (*sat.Model, []sat.PenaltyTerm) {
		m := sat.NewModel()
		// Unrelated variables shift every identity in the second model.
		newTimeline(m, "padding", 3)
		terms, err := Sequence(m, newTimeline(m, "t", 8), spec, "seq")
		require.NoError(t, err)
		return m, terms
	}

	first, firstTerms := build()
	second, secondTerms := build()

	a, err := sat.Fingerprint(first)
	require.NoError(t, err)
	b, err := sat.Fingerprint(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, secondTerms, len(firstTerms))
	for i := range firstTerms {
		assert.Equal(t, firstTerms[i].Coeff, secondTerms[i].Coeff)
	}
}

func TestSequenceNoOps(t *testing.T) {
	t.Run("empty timeline", func(t *testing.T) {
		m := sat.NewModel()
		terms, err := Sequence(m, nil, FromTuple([6]int{1, 2, 3, 4, 5, 6}), "empty")
		assert.NoError(t, err)
		assert.Nil(t, terms)
		assert.Empty(t, m.Constraints())
	})

	t.Run("hard max beyond the timeline", func(t *testing.T) {
		m := sat.NewModel()
		terms, err := Sequence(m, newTimeline(m, "t", 3), Between(0, 10), "wide")
		assert.NoError(t, err)
		assert.Empty(t, terms)
		assert.Empty(t, m.Constraints())
	})

	t.Run("invalid spec", func(t *testing.T) {
		m := sat.NewModel()
		tl := newTimeline(m, "t", 3)
		before := m.Len()
		_, err := Sequence(m, tl, FromTuple([6]int{3, 1, 0, 1, 3, 0}), "bad")
		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))
		assert.Empty(t, m.Constraints())
		assert.Equal(t, before, m.Len())
	})
}

func TestSequenceUnboundedHardMax(t *testing.T) {
	for _, tt := range []struct {
		Name   string
		Spec   ThresholdSpec
		Capped ThresholdSpec
	}{
		{
			Name:   "hard band only",
			Spec:   Between(1, math.MaxInt),
			Capped: Between(1, 5),
		},
		{
			Name:   "priced excess",
			Spec:   FromTuple([6]int{1, 1, 0, 2, 1 << 31, 1}),
			Capped: FromTuple([6]int{1, 1, 0, 2, 5, 1}),
		},
		{
			Name:   "soft max at the limit",
			Spec:   FromTuple([6]int{2, 3, 1, math.MaxInt, math.MaxInt, 4}),
			Capped: FromTuple([6]int{2, 3, 1, 5, 5, 4}),
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := sat.NewModel()
			terms, err := Sequence(m, newTimeline(m, "t", 5), tt.Spec, "wide")
			require.NoError(t, err)
			capped := sat.NewModel()
			cappedTerms, err := Sequence(capped, newTimeline(capped, "t", 5), tt.Capped, "wide")
			require.NoError(t, err)

			assert.Len(t, terms, len(cappedTerms))
			assert.Len(t, m.Constraints(), len(capped.Constraints()))
			for _, pattern := range patterns(5) {
				ok, cost := evaluate(t, sequenceOf(tt.Spec), pattern)
				wantOK, wantCost := evaluate(t, sequenceOf(tt.Capped), pattern)
				require.Equal(t, wantOK, ok, pattern)
				assert.Equal(t, wantCost, cost, pattern)
			}
		})
	}
}
