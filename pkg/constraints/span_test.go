package constraints

import (
	"fmt"
	"testing"

	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

func TestSpan(t *testing.T) {
	m := sat.NewModel()
	tl := newTimeline(m, "t", 5)

	for length := 1; length <= len(tl); length++ {
		for start := 0; start+length <= len(tl); start++ {
			t.Run(fmt.Sprintf("start=%d length=%d", start, length), func(t *testing.T) {
				clause := Span(tl, start, length)

				want := length
				if start > 0 {
					want++
				}
				if start+length < len(tl) {
					want++
				}
				require.Len(t, clause, want)

				i := 0
				if start > 0 {
					assert.Equal(t, tl[start-1], clause[i])
					i++
				}
				for j := start; j < start+length; j++ {
					assert.Equal(t, tl[j].Not(), clause[i])
					assert.False(t, clause[i].IsPos())
					i++
				}
				if start+length < len(tl) {
					assert.Equal(t, tl[start+length], clause[i])
					assert.True(t, clause[i].IsPos())
				}
			})
		}
	}
}

func TestSpanOutOfRange(t *testing.T) {
	tl := Timeline{z.Var(1).Pos(), z.Var(2).Pos(), z.Var(3).Pos()}

	for _, tt := range []struct {
		start, length int
	}{
		{-1, 1},
		{0, 0},
		{2, 2},
		{3, 1},
		{0, 4},
	} {
		assert.Panics(t, func() { Span(tl, tt.start, tt.length) }, "start=%d length=%d", tt.start, tt.length)
	}
	assert.NotPanics(t, func() { Span(tl, 0, 3) })
}
