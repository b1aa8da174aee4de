package sat

import (
	"fmt"
	"io"
)

// SearchPosition describes one decision made while minimizing: the
// objective bound that was tested (negative when unbounded) and the
// outcome of the test.
type SearchPosition interface {
	Bound() int
	Outcome() int
	Conflicts() []AppliedConstraint
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nBound: %d\nOutcome: %s\n", p.Bound(), outcomeString(p.Outcome()))
	if p.Outcome() != unsatisfiable {
		return
	}
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, a := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", a)
	}
}

func outcomeString(outcome int) string {
	switch outcome {
	case satisfiable:
		return "satisfiable"
	case unsatisfiable:
		return "unsatisfiable"
	}
	return "unknown"
}
