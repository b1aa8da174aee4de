package constraints

import (
	"fmt"

	"github.com/go-air/gini/z"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

// Timeline is an ordered sequence of boolean variables, one per time
// unit. Adjacent entries are consecutive.
type Timeline []z.Lit

// Span returns the clause that is violated exactly when
// timeline[start:start+length] is an isolated run: every variable of
// the window is true and each existing neighbour is false.
//
// Span panics unless 0 <= start, length >= 1 and start+length <=
// len(timeline).
func Span(timeline Timeline, start, length int) sat.Clause {
	if start < 0 || length < 1 || start+length > len(timeline) {
		panic(fmt.Sprintf("span [%d, %d) out of range for timeline of length %d", start, start+length, len(timeline)))
	}
	clause := make(sat.Clause, 0, length+2)
	if start > 0 {
		clause = append(clause, timeline[start-1])
	}
	for _, lit := range timeline[start : start+length] {
		clause = append(clause, lit.Not())
	}
	if end := start + length; end < len(timeline) {
		clause = append(clause, timeline[end])
	}
	return clause
}

// window returns the clause forbidding every variable of
// timeline[start:start+length] from being true at once.
func window(timeline Timeline, start, length int) sat.Clause {
	clause := make(sat.Clause, length)
	for i, lit := range timeline[start : start+length] {
		clause[i] = lit.Not()
	}
	return clause
}
