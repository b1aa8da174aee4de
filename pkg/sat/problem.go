package sat

import (
	"io"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Problem is a frozen copy of a Model together with an objective,
// handed to a Backend. Backends may extend the circuit (for
// instance with an objective encoding) without affecting the Model.
type Problem struct {
	c           *logic.C
	roots       []z.Lit
	constraints map[z.Lit][]AppliedConstraint
	offset      int
	objective   []WeightedLit
}

// Circuit returns the problem's circuit.
func (p *Problem) Circuit() *logic.C {
	return p.c
}

// Roots returns the literals that hold exactly when every hard
// constraint of the model holds.
func (p *Problem) Roots() []z.Lit {
	return p.roots
}

// Objective returns the weighted literals to minimize. The cost of
// an assignment is Offset() plus the weights of the literals it
// satisfies.
func (p *Problem) Objective() []WeightedLit {
	return p.objective
}

// Offset returns the constant part of the objective.
func (p *Problem) Offset() int {
	return p.offset
}

// Cost evaluates the objective under an assignment.
func (p *Problem) Cost(a Assignment) int {
	cost := p.offset
	for _, w := range p.objective {
		if a.Value(w.Lit) {
			cost += w.Weight
		}
	}
	return cost
}

// MaxVar returns the largest variable of the circuit.
func (p *Problem) MaxVar() z.Var {
	return z.Var(p.c.Len() - 1)
}

// Conflicts maps failed assumptions back to the constraints whose
// roots they are.
func (p *Problem) Conflicts(whys []z.Lit) []AppliedConstraint {
	as := make([]AppliedConstraint, 0, len(whys))
	for _, why := range whys {
		as = append(as, p.constraints[why]...)
	}
	return as
}

// ToCnf adds the Tseitin encoding of the circuit to dst. The roots
// are not included; see Clauses.
func (p *Problem) ToCnf(dst inter.Adder) {
	p.c.ToCnf(dst)
}

// Clauses returns the circuit encoding plus one unit clause per
// root, i.e. a CNF that is satisfiable iff the model is.
func (p *Problem) Clauses() [][]z.Lit {
	var cc clauseCollector
	p.c.ToCnf(&cc)
	for _, root := range p.roots {
		cc.Add(root)
		cc.Add(z.LitNull)
	}
	return cc.clauses
}

// clauseCollector is an inter.Adder that keeps the clauses it is
// taught.
type clauseCollector struct {
	clauses [][]z.Lit
	cur     []z.Lit
}

func (cc *clauseCollector) Add(m z.Lit) {
	if m != z.LitNull {
		cc.cur = append(cc.cur, m)
		return
	}
	cc.clauses = append(cc.clauses, cc.cur)
	cc.cur = nil
}

// WriteDIMACS writes the hard part of the model to w in DIMACS CNF
// format.
func WriteDIMACS(w io.Writer, m *Model) error {
	p := m.snapshot()
	g := gini.New()
	for _, c := range p.Clauses() {
		for _, lit := range c {
			g.Add(lit)
		}
		g.Add(z.LitNull)
	}
	return g.Write(w)
}
