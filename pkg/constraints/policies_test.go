package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

func TestTwoOrFour(t *testing.T) {
	compile := func(m *sat.Model, tl Timeline) ([]sat.PenaltyTerm, error) {
		TwoOrFour(m, tl, "night")
		return nil, nil
	}

	for _, tt := range []struct {
		Pattern  string
		Feasible bool
	}{
		{"00000000", true},
		{"11000000", true},
		{"11110000", true},
		{"11011110", true},
		{"11110110", true},
		{"01100110", true},
		{"10000000", false},
		{"11100000", false},
		{"01110000", false},
		{"00000111", false},
		{"11111000", false},
		{"11111111", false},
		{"11011100", false},
	} {
		t.Run(tt.Pattern, func(t *testing.T) {
			ok, _ := evaluate(t, compile, tt.Pattern)
			assert.Equal(t, tt.Feasible, ok)
		})
	}

	t.Run("agrees with run lengths", func(t *testing.T) {
		for _, pattern := range patterns(7) {
			feasible := true
			for _, n := range runs(pattern) {
				if n != 2 && n != 4 {
					feasible = false
				}
			}
			ok, _ := evaluate(t, compile, pattern)
			assert.Equal(t, feasible, ok, pattern)
		}
	})
}

func TestExactLength(t *testing.T) {
	compile := func(m *sat.Model, tl Timeline) ([]sat.PenaltyTerm, error) {
		return nil, ExactLength(m, tl, 3, "icu")
	}

	for _, pattern := range patterns(7) {
		feasible := true
		for _, n := range runs(pattern) {
			if n != 3 {
				feasible = false
			}
		}
		ok, cost := evaluate(t, compile, pattern)
		assert.Equal(t, feasible, ok, pattern)
		assert.Zero(t, cost)
	}

	m := sat.NewModel()
	require.Error(t, ExactLength(m, newTimeline(m, "t", 3), -1, "negative"))
	assert.Empty(t, m.Constraints())
}
