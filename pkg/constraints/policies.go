package constraints

import (
	"fmt"

	"github.com/rotaplan/rotaplan/pkg/metrics"
)

// ExactLength forbids every run of true variables whose length is not
// exactly n.
func ExactLength(m Model, timeline Timeline, n int, label string) error {
	_, err := Sequence(m, timeline, Exactly(n), label)
	return err
}

// TwoOrFour forbids every run of true variables whose length is
// neither 2 nor 4. No single ThresholdSpec describes this set, so runs
// of length 1 and 3 are detected by span and runs of 5 or more by a
// sliding window.
func TwoOrFour(m Model, timeline Timeline, label string) {
	var clauses int
	for _, length := range []int{1, 3} {
		for start := 0; start+length <= len(timeline); start++ {
			m.AddClause(fmt.Sprintf("%s: forbidden_span(start=%d, length=%d)", label, start, length), Span(timeline, start, length)...)
			clauses++
		}
	}
	clauses += forbidLongRuns(m, timeline, 4, label)
	metrics.EmitClauses(metrics.TwoOrFourCompiler, clauses)
}
