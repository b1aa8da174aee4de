package sat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

type DuplicateIdentifier Identifier

func (e DuplicateIdentifier) Error() string {
	return fmt.Sprintf("duplicate identifier %q in model", Identifier(e))
}

type inconsistentModel []error

func (inconsistentModel) Error() string {
	return "inconsistent model"
}

// AppliedConstraint is a named hard constraint registered with a
// Model. Kind and Arity describe its shape independently of the
// literals it was built from.
type AppliedConstraint struct {
	Identifier Identifier
	Kind       string
	Arity      int
}

// String implements fmt.Stringer and returns a human-readable message
// representing the receiver.
func (a AppliedConstraint) String() string {
	return a.Identifier.String()
}

const (
	KindClause  = "clause"
	KindDomain  = "domain"
	KindSum     = "sum"
	KindMax     = "max"
	KindWeights = "weighted-sum"
)

// Model is an append-only constraint model. Every hard constraint
// is compiled into a combinational circuit whose output literal (the
// root) must hold in any solution; solvers assume the roots, so an
// unsatisfiable model can be explained in terms of the constraints
// that were registered.
//
// All methods are safe for concurrent use.
type Model struct {
	mu          sync.Mutex
	c           *logic.C
	names       map[Identifier]z.Lit
	inputs      map[z.Var]Identifier
	constraints map[z.Lit][]AppliedConstraint
	roots       []z.Lit
	ints        []*IntVar
	errs        inconsistentModel
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{
		c:           logic.NewC(),
		names:       make(map[Identifier]z.Lit),
		inputs:      make(map[z.Var]Identifier),
		constraints: make(map[z.Lit][]AppliedConstraint),
	}
}

// NewBool creates a fresh boolean decision variable and returns its
// positive literal.
func (m *Model) NewBool(name string) z.Lit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newInput(Identifier(name))
}

func (m *Model) newInput(id Identifier) z.Lit {
	if _, ok := m.names[id]; ok {
		m.errs = append(m.errs, DuplicateIdentifier(id))
	}
	lit := m.c.Lit()
	m.names[id] = lit
	m.inputs[lit.Var()] = id
	return lit
}

// AddClause registers the disjunction of lits as a hard constraint.
// An empty clause can never be satisfied.
func (m *Model) AddClause(name string, lits ...z.Lit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.own(name, lits...) {
		return
	}
	m.register(m.c.Ors(lits...), AppliedConstraint{
		Identifier: Identifier(name),
		Kind:       KindClause,
		Arity:      len(lits),
	})
}

// NewIntVar creates an integer variable with the inclusive domain
// [lo, hi].
func (m *Model) NewIntVar(name string, lo, hi int) *IntVar {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := Identifier(name)
	if lo > hi {
		m.errs = append(m.errs, fmt.Errorf("integer %q has empty domain [%d, %d]", id, lo, hi))
		hi = lo
	}
	x := &IntVar{id: id, lo: lo, hi: hi, t: m.c.T}
	x.ge = make([]z.Lit, hi-lo)
	order := make([]z.Lit, 0, len(x.ge))
	for i := range x.ge {
		x.ge[i] = m.newInput(Identifier(fmt.Sprintf("%s>=%d", id, lo+1+i)))
		if i > 0 {
			order = append(order, m.c.Implies(x.ge[i], x.ge[i-1]))
		}
	}
	m.ints = append(m.ints, x)
	m.register(m.c.Ands(order...), AppliedConstraint{
		Identifier: id,
		Kind:       KindDomain,
		Arity:      hi - lo,
	})
	return x
}

// AddSumEquality registers sum(lits) == x.
func (m *Model) AddSumEquality(name string, lits []z.Lit, x *IntVar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.own(name, lits...) {
		return
	}
	m.register(m.equalCount(lits, x), AppliedConstraint{
		Identifier: Identifier(name),
		Kind:       KindSum,
		Arity:      len(lits),
	})
}

// AddWeightedSumEquality registers sum(weights[i] * lits[i]) == x.
// Weights must be non-negative.
func (m *Model) AddWeightedSumEquality(name string, lits []z.Lit, weights []int, x *IntVar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.own(name, lits...) {
		return
	}
	if len(lits) != len(weights) {
		m.errs = append(m.errs, fmt.Errorf("%s: %d literals but %d weights", name, len(lits), len(weights)))
		return
	}
	var units []z.Lit
	for i, w := range weights {
		if w < 0 {
			m.errs = append(m.errs, fmt.Errorf("%s: negative weight %d", name, w))
			return
		}
		for j := 0; j < w; j++ {
			units = append(units, lits[i])
		}
	}
	m.register(m.equalCount(units, x), AppliedConstraint{
		Identifier: Identifier(name),
		Kind:       KindWeights,
		Arity:      len(lits),
	})
}

// equalCount returns a literal that holds iff exactly x of lits are
// true. Outside the domain of x the literal is false.
func (m *Model) equalCount(lits []z.Lit, x *IntVar) z.Lit {
	cs := m.c.CardSort(lits)
	eqs := make([]z.Lit, 0, x.hi-x.lo+2)
	for k := x.lo; k <= x.hi+1; k++ {
		eqs = append(eqs, m.c.Xor(x.Geq(k), cs.Geq(k)).Not())
	}
	return m.c.Ands(eqs...)
}

// AddMaxEquality registers target == max(exprs ∪ {0}).
func (m *Model) AddMaxEquality(name string, target *IntVar, exprs ...Affine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target.lo < 0 {
		m.errs = append(m.errs, fmt.Errorf("%s: %s can never equal a maximum with zero", name, target))
		return
	}
	// target >= k for k below its lower bound follows from k = lo.
	var eqs []z.Lit
	for k := max(1, target.lo); k <= target.hi+1; k++ {
		ors := make([]z.Lit, 0, len(exprs))
		for _, e := range exprs {
			lit, err := e.geq(k, m.c.T)
			if err != nil {
				m.errs = append(m.errs, fmt.Errorf("%s: %v", name, err))
				return
			}
			ors = append(ors, lit)
		}
		eqs = append(eqs, m.c.Xor(target.Geq(k), m.c.Ors(ors...)).Not())
	}
	m.register(m.c.Ands(eqs...), AppliedConstraint{
		Identifier: Identifier(name),
		Kind:       KindMax,
		Arity:      len(exprs),
	})
}

func (m *Model) register(root z.Lit, a AppliedConstraint) {
	if root == m.c.T {
		// Trivially satisfied, nothing to teach the solver.
		return
	}
	if _, ok := m.constraints[root]; !ok {
		m.roots = append(m.roots, root)
	}
	m.constraints[root] = append(m.constraints[root], a)
}

// own reports whether every literal was created by this model,
// recording an error otherwise.
func (m *Model) own(name string, lits ...z.Lit) bool {
	for _, lit := range lits {
		if lit == z.LitNull || int(lit.Var()) >= m.c.Len() {
			m.errs = append(m.errs, fmt.Errorf("%s: literal %s referenced but not provided by the model", name, lit))
			return false
		}
	}
	return true
}

// Name returns a human-readable name for the literal m. Negative
// literals are prefixed with "¬"; literals that are not model
// inputs are named after their variable.
func (m *Model) Name(lit z.Lit) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.inputs[lit.Var()]
	if !ok {
		name = Identifier(lit.Var().String())
	}
	if lit.IsPos() {
		return name.String()
	}
	return "¬" + name.String()
}

// LitOf returns the positive literal of the boolean variable with
// the given Identifier.
func (m *Model) LitOf(id Identifier) (z.Lit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lit, ok := m.names[id]
	return lit, ok
}

// Len returns the number of named variables in the model.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// Constraints returns every registered hard constraint in
// registration order.
func (m *Model) Constraints() []AppliedConstraint {
	m.mu.Lock()
	defer m.mu.Unlock()
	var as []AppliedConstraint
	for _, root := range m.roots {
		as = append(as, m.constraints[root]...)
	}
	return as
}

// Error returns a single error value that is an aggregation of all
// errors encountered during the model's lifetime, or nil if there
// have been none. A non-nil value means the model does not describe
// what its callers asked for and must not be solved.
func (m *Model) Error() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errs) == 0 {
		return nil
	}
	s := make([]string, len(m.errs))
	for i, err := range m.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// snapshot copies the state a solver needs, so that solving never
// mutates the model.
func (m *Model) snapshot() *Problem {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Problem{
		c:           m.c.Copy(),
		roots:       append([]z.Lit(nil), m.roots...),
		constraints: make(map[z.Lit][]AppliedConstraint, len(m.constraints)),
	}
	for root, as := range m.constraints {
		p.constraints[root] = append([]AppliedConstraint(nil), as...)
	}
	return p
}
